package orders

import "time"

// ClosePolicy momento en que la cadena cierra la orden.
type ClosePolicy string

const (
	// CloseOnReceiptCreated cierra la orden al crear el RECEIPT (reconocimiento del PAYMENT).
	CloseOnReceiptCreated ClosePolicy = "receipt_created"
	// CloseOnReceiptAcknowledged cierra la orden cuando el comprador reconoce el RECEIPT.
	CloseOnReceiptAcknowledged ClosePolicy = "receipt_acknowledged"
)

// Settings parámetros del flujo de órdenes.
type Settings struct {
	CloseOn ClosePolicy
	// ParentOrderWindow antigüedad máxima de la aprobación de la orden padre (0 = sin límite).
	ParentOrderWindow time.Duration
	// RequireParentOrder exige orden padre a D2H y S2D.
	RequireParentOrder bool
}

// DefaultSettings configuración por defecto.
func DefaultSettings() Settings {
	return Settings{CloseOn: CloseOnReceiptCreated}
}

func (s Settings) closeOn() ClosePolicy {
	if s.CloseOn == CloseOnReceiptAcknowledged {
		return CloseOnReceiptAcknowledged
	}
	return CloseOnReceiptCreated
}

// CloseOn política de cierre efectiva de la cadena.
func (uc *DocumentChainUseCase) CloseOn() ClosePolicy {
	return uc.settings.closeOn()
}
