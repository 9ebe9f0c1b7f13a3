package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus estado de un traslado entre organizaciones.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusReceived TransferStatus = "received"
)

// StockTransfer traslado de stock. Al crearse genera transfer_out en origen; al confirmarse la recepción
// genera transfer_in en destino. Entre ambos eventos el stock no está en el on-hand de ninguna de las dos.
type StockTransfer struct {
	ID         string
	FromOrgID  string
	ToOrgID    string
	Status     TransferStatus
	Lines      []StockTransferLine
	Notes      string
	CreatedBy  string
	CreatedAt  time.Time
	ReceivedBy string
	ReceivedAt *time.Time
}

// StockTransferLine línea del traslado.
type StockTransferLine struct {
	ID         string
	TransferID string
	VariantID  string
	Quantity   int64
	UnitCost   *decimal.Decimal
}
