package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Toda operación del núcleo devuelve uno de estos errores (o uno que los envuelve).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrIllegalTransition      = errors.New("transición de estado no permitida")
	ErrDuplicateDocument      = errors.New("el documento ya existe para esta orden")
	ErrPaymentProofRequired   = errors.New("se requiere comprobante de pago")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidHierarchy       = errors.New("jerarquía de organizaciones inválida")
	ErrOrphanedOrganization   = errors.New("organización sin casa matriz alcanzable")
	ErrParentOrderNotApproved = errors.New("la orden padre no está aprobada")
	ErrPermissionDenied       = errors.New("acceso denegado")
	ErrContention             = errors.New("recurso ocupado, reintente")
)

// DeniedError explica por qué el evaluador de permisos rechazó una acción.
// Envuelve ErrPermissionDenied para que errors.Is siga funcionando.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPermissionDenied.Error(), e.Reason)
}

func (e *DeniedError) Unwrap() error { return ErrPermissionDenied }

// Denied construye un DeniedError con el código de razón dado.
func Denied(reason string) error {
	return &DeniedError{Reason: reason}
}

// IsRetriable indica si el error es transitorio (solo Contention).
func IsRetriable(err error) bool {
	return errors.Is(err, ErrContention)
}
