package entity

import "time"

// OrgType tipo de organización dentro de la red de suministro.
type OrgType string

// Tipos de organización (deben coincidir con el CHECK de la tabla organizations).
const (
	OrgTypeHQ           OrgType = "HQ"
	OrgTypeManufacturer OrgType = "MANUFACTURER"
	OrgTypeDistributor  OrgType = "DISTRIBUTOR"
	OrgTypeShop         OrgType = "SHOP"
	OrgTypeWarehouse    OrgType = "WAREHOUSE"
)

// Valid indica si el tipo es uno de los conocidos.
func (t OrgType) Valid() bool {
	switch t {
	case OrgTypeHQ, OrgTypeManufacturer, OrgTypeDistributor, OrgTypeShop, OrgTypeWarehouse:
		return true
	}
	return false
}

// Organization representa un nodo de la jerarquía (casa matriz, fabricante, distribuidor, tienda o bodega).
// ParentID es una referencia débil: solo se usa para recorrer la jerarquía por ID.
type Organization struct {
	ID                   string
	Type                 OrgType
	ParentID             string // vacío si es raíz (HQ)
	Name                 string
	Active               bool
	RequirePaymentProof  bool     // política: exigir comprobante al reconocer la factura
	LinkedDistributorIDs []string // solo SHOP: distribuidores vinculados (el padre cuenta como vinculado)
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsLinkedTo indica si la tienda está vinculada al distribuidor (por padre o por vínculo explícito).
func (o *Organization) IsLinkedTo(distributorID string) bool {
	if distributorID == "" {
		return false
	}
	if o.ParentID == distributorID {
		return true
	}
	for _, id := range o.LinkedDistributorIDs {
		if id == distributorID {
			return true
		}
	}
	return false
}
