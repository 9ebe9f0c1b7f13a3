package entity

// Tipos de artefacto asociados a una orden.
const (
	ArtifactKindQR    = "qr"
	ArtifactKindBatch = "batch"
)

// OrderArtifact código QR o lote generado para una orden. Los no finalizados se eliminan junto con la orden.
type OrderArtifact struct {
	ID        string
	OrderID   string
	Kind      string
	Code      string
	Finalized bool
}
