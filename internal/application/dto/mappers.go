package dto

import "github.com/jhoicas/supplychain-core/internal/domain/entity"

// ToOrganizationResponse mapea la entidad a su respuesta.
func ToOrganizationResponse(o *entity.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:                   o.ID,
		Type:                 string(o.Type),
		ParentID:             o.ParentID,
		Name:                 o.Name,
		Active:               o.Active,
		RequirePaymentProof:  o.RequirePaymentProof,
		LinkedDistributorIDs: o.LinkedDistributorIDs,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

// ToOrderResponse mapea la orden con sus líneas y total.
func ToOrderResponse(o *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:        it.ID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return OrderResponse{
		ID:            o.ID,
		CompanyID:     o.CompanyID,
		Type:          string(o.Type),
		Status:        string(o.Status),
		BuyerOrgID:    o.BuyerOrgID,
		SellerOrgID:   o.SellerOrgID,
		ParentOrderID: o.ParentOrderID,
		Items:         items,
		Total:         o.Total(),
		Notes:         o.Notes,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		SubmittedAt:   o.SubmittedAt,
		ApprovedAt:    o.ApprovedAt,
		ApprovedBy:    o.ApprovedBy,
		ClosedAt:      o.ClosedAt,
	}
}

// ToDocumentResponse mapea el documento.
func ToDocumentResponse(d *entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:             d.ID,
		OrderID:        d.OrderID,
		Type:           string(d.Type),
		Number:         d.Number,
		Status:         string(d.Status),
		IssuerOrgID:    d.IssuerOrgID,
		ReceiverOrgID:  d.ReceiverOrgID,
		ProofRef:       d.ProofRef,
		CreatedAt:      d.CreatedAt,
		AcknowledgedAt: d.AcknowledgedAt,
		AcknowledgedBy: d.AcknowledgedBy,
	}
}

// ToMovementResponse mapea un movimiento del libro.
func ToMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		Seq:             m.Seq,
		Kind:            string(m.Kind),
		VariantID:       m.VariantID,
		OrganizationID:  m.OrganizationID,
		QuantityChange:  m.QuantityChange,
		AllocatedChange: m.AllocatedChange,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		UnitCost:        m.UnitCost,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Reason:          m.Reason,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// ToPositionResponse mapea una posición (incluye disponible calculado).
func ToPositionResponse(p *entity.InventoryPosition) PositionResponse {
	return PositionResponse{
		VariantID:         p.VariantID,
		OrganizationID:    p.OrganizationID,
		QuantityOnHand:    p.QuantityOnHand,
		QuantityAllocated: p.QuantityAllocated,
		QuantityAvailable: p.Available(),
		AverageCost:       p.AverageCost,
		LastSeq:           p.LastSeq,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToTransferResponse mapea un traslado.
func ToTransferResponse(t *entity.StockTransfer) TransferResponse {
	lines := make([]TransferLineRequest, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, TransferLineRequest{VariantID: l.VariantID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	return TransferResponse{
		ID:         t.ID,
		FromOrgID:  t.FromOrgID,
		ToOrgID:    t.ToOrgID,
		Status:     string(t.Status),
		Lines:      lines,
		Notes:      t.Notes,
		CreatedBy:  t.CreatedBy,
		CreatedAt:  t.CreatedAt,
		ReceivedBy: t.ReceivedBy,
		ReceivedAt: t.ReceivedAt,
	}
}
