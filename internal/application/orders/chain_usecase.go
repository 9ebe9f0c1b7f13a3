package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/supplychain-core/internal/application/inventory"
	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
	"github.com/jhoicas/supplychain-core/internal/domain/access"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/pkg/tracing"
)

// DocumentChainUseCase autómata PO -> INVOICE -> PAYMENT -> RECEIPT -> orden cerrada.
// Cada reconocimiento y sus efectos (siguiente documento, movimientos, cierre) se confirman juntos.
type DocumentChainUseCase struct {
	txRunner ports.TxRunner
	repos    ports.Repos
	locker   ports.Locker
	ledger   *inventory.LedgerUseCase
	verifier ports.ProofVerifier
	policy   access.Policy
	settings Settings
}

// NewDocumentChainUseCase construye el caso de uso. verifier puede ser nil (referencias sin verificar).
func NewDocumentChainUseCase(
	txRunner ports.TxRunner,
	repos ports.Repos,
	locker ports.Locker,
	ledger *inventory.LedgerUseCase,
	verifier ports.ProofVerifier,
	policy access.Policy,
	settings Settings,
) *DocumentChainUseCase {
	return &DocumentChainUseCase{
		txRunner: txRunner,
		repos:    repos,
		locker:   locker,
		ledger:   ledger,
		verifier: verifier,
		policy:   policy,
		settings: settings,
	}
}

// AckResult resultado de un reconocimiento.
type AckResult struct {
	Document            *entity.Document
	Next                *entity.Document
	Order               *entity.Order
	Movements           []*entity.StockMovement
	AlreadyAcknowledged bool
}

// Acknowledge reconoce el documento en nombre de la organización receptora y ejecuta el paso
// siguiente de la cadena. Reconocer un documento ya reconocido devuelve el estado actual sin efectos.
func (uc *DocumentChainUseCase) Acknowledge(ctx context.Context, actor entity.Actor, documentID, proofRef string) (res *AckResult, err error) {
	ctx, end := tracing.Track(ctx, "documents.Acknowledge", attribute.String("document_id", documentID))
	defer func() { end(err) }()

	proofRef = strings.TrimSpace(proofRef)
	doc, order, err := uc.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if proofRef != "" {
		if doc.Type != entity.DocumentTypeInvoice {
			return nil, fmt.Errorf("%w: solo la INVOICE admite comprobante", domain.ErrInvalidInput)
		}
		if !doc.IsAcknowledged() {
			if err := uc.verifyProof(ctx, proofRef); err != nil {
				return nil, err
			}
		}
	}

	release, err := uc.locker.Acquire(ctx, uc.chainKeys(doc, order)...)
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		d, o, err := lockDocument(ctx, r, documentID)
		if err != nil {
			return err
		}
		if err := access.Check(actor, access.ActionAcknowledge, access.Subject{Document: d}, uc.policy); err != nil {
			return err
		}
		res = &AckResult{Document: d, Order: o}
		if d.IsAcknowledged() {
			res.AlreadyAcknowledged = true
			return nil
		}
		if err := checkChainOpen(o, d); err != nil {
			return err
		}
		if d.Type == entity.DocumentTypeInvoice {
			if err := uc.gatePaymentProof(ctx, r, d, proofRef); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		d.Status = entity.DocumentStatusAcknowledged
		d.AcknowledgedAt = &now
		d.AcknowledgedBy = actor.UserID
		if err := r.Documents.Update(ctx, d); err != nil {
			return err
		}
		if err := emit(ctx, r, entity.TopicDocumentAcknowledged, d.ID, map[string]any{
			"document_id":     d.ID,
			"order_id":        o.ID,
			"type":            d.Type,
			"acknowledged_by": actor.UserID,
		}, now); err != nil {
			return err
		}
		step, err := uc.advance(ctx, r, o, d, actor.UserID, now)
		if err != nil {
			return err
		}
		res.Next, res.Movements = step.next, step.movements
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Resume completa el paso siguiente de un documento reconocido si quedó incompleto
// (reconciliación tras una caída). Devuelve true si hubo que escribir algo.
func (uc *DocumentChainUseCase) Resume(ctx context.Context, documentID string) (changed bool, err error) {
	ctx, end := tracing.Track(ctx, "documents.Resume", attribute.String("document_id", documentID))
	defer func() { end(err) }()

	doc, order, err := uc.load(ctx, documentID)
	if err != nil {
		return false, err
	}
	if !doc.IsAcknowledged() {
		return false, nil
	}

	release, err := uc.locker.Acquire(ctx, uc.chainKeys(doc, order)...)
	if err != nil {
		return false, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		d, o, err := lockDocument(ctx, r, documentID)
		if err != nil {
			return err
		}
		if !d.IsAcknowledged() {
			return nil
		}
		step, err := uc.advance(ctx, r, o, d, d.AcknowledgedBy, time.Now().UTC())
		if err != nil {
			return err
		}
		changed = step.changed
		return nil
	})
	return changed, err
}

// AttachProof adjunta la referencia del comprobante de pago a una INVOICE pendiente.
func (uc *DocumentChainUseCase) AttachProof(ctx context.Context, actor entity.Actor, documentID, proofRef string) (doc *entity.Document, err error) {
	ctx, end := tracing.Track(ctx, "documents.AttachProof", attribute.String("document_id", documentID))
	defer func() { end(err) }()

	proofRef = strings.TrimSpace(proofRef)
	if proofRef == "" {
		return nil, domain.ErrInvalidInput
	}
	current, order, err := uc.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor, access.ActionAttachProof, access.Subject{Document: current}, uc.policy); err != nil {
		return nil, err
	}
	if current.Type != entity.DocumentTypeInvoice {
		return nil, fmt.Errorf("%w: solo la INVOICE admite comprobante", domain.ErrInvalidInput)
	}
	if err := uc.verifyProof(ctx, proofRef); err != nil {
		return nil, err
	}

	release, err := uc.locker.Acquire(ctx, ports.OrderKey(order.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		d, _, err := lockDocument(ctx, r, documentID)
		if err != nil {
			return err
		}
		if d.IsAcknowledged() {
			return fmt.Errorf("%w: el documento ya fue reconocido", domain.ErrIllegalTransition)
		}
		d.ProofRef = proofRef
		doc = d
		return r.Documents.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DocumentSnapshot vista consistente de un documento y su contexto para el renderizador PDF.
type DocumentSnapshot struct {
	Document *entity.Document
	Order    *entity.Order
	Issuer   *entity.Organization
	Receiver *entity.Organization
	TakenAt  time.Time
}

// Snapshot lee documento, orden y organizaciones en una misma instantánea de solo lectura.
func (uc *DocumentChainUseCase) Snapshot(ctx context.Context, actor entity.Actor, documentID string) (snap *DocumentSnapshot, err error) {
	ctx, end := tracing.Track(ctx, "documents.Snapshot", attribute.String("document_id", documentID))
	defer func() { end(err) }()

	err = uc.txRunner.ReadSnapshot(ctx, func(r ports.Repos) error {
		d, err := r.Documents.GetByID(ctx, documentID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrNotFound
		}
		if err := access.Check(actor, access.ActionReadDocument, access.Subject{Document: d}, uc.policy); err != nil {
			return err
		}
		o, err := r.Orders.GetByID(ctx, d.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		issuer, err := r.Organizations.GetByID(ctx, d.IssuerOrgID)
		if err != nil {
			return err
		}
		receiver, err := r.Organizations.GetByID(ctx, d.ReceiverOrgID)
		if err != nil {
			return err
		}
		if issuer == nil || receiver == nil {
			return domain.ErrNotFound
		}
		snap = &DocumentSnapshot{Document: d, Order: o, Issuer: issuer, Receiver: receiver, TakenAt: time.Now().UTC()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListByOrder lista los documentos de la orden en orden de la cadena.
func (uc *DocumentChainUseCase) ListByOrder(ctx context.Context, actor entity.Actor, orderID string) ([]*entity.Document, error) {
	order, err := uc.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if err := access.Check(actor, access.ActionReadOrder, access.Subject{Order: order}, uc.policy); err != nil {
		return nil, err
	}
	return uc.repos.Documents.ListByOrder(ctx, orderID)
}

// stepResult efectos de advance.
type stepResult struct {
	next      *entity.Document
	movements []*entity.StockMovement
	changed   bool
}

// advance ejecuta el paso que sigue al reconocimiento de d. Es idempotente: si el sucesor,
// los movimientos o el cierre ya existen no los repite.
func (uc *DocumentChainUseCase) advance(ctx context.Context, r ports.Repos, o *entity.Order, d *entity.Document, actorID string, now time.Time) (stepResult, error) {
	var res stepResult
	switch d.Type {
	case entity.DocumentTypePO:
		return uc.ensureDocument(ctx, r, o, entity.DocumentTypeInvoice, now)
	case entity.DocumentTypeInvoice:
		return uc.ensureDocument(ctx, r, o, entity.DocumentTypePayment, now)
	case entity.DocumentTypePayment:
		done, err := inventory.HasFulfillment(ctx, r, o.ID)
		if err != nil {
			return res, err
		}
		movs, err := uc.ledger.FulfillOrderInTx(ctx, r, o, actorID, now)
		if err != nil {
			return res, err
		}
		res.movements = movs
		res.changed = !done
		receipt, err := uc.ensureDocument(ctx, r, o, entity.DocumentTypeReceipt, now)
		if err != nil {
			return res, err
		}
		res.next = receipt.next
		res.changed = res.changed || receipt.changed
		if uc.settings.closeOn() == CloseOnReceiptCreated && o.Status == entity.OrderStatusApproved {
			if err := closeInTx(ctx, r, o, now); err != nil {
				return res, err
			}
			res.changed = true
		}
		return res, nil
	case entity.DocumentTypeReceipt:
		if uc.settings.closeOn() == CloseOnReceiptAcknowledged && o.Status == entity.OrderStatusApproved {
			if err := closeInTx(ctx, r, o, now); err != nil {
				return res, err
			}
			res.changed = true
		}
		return res, nil
	}
	return res, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, d.Type)
}

// ensureDocument crea el documento t si aún no existe.
func (uc *DocumentChainUseCase) ensureDocument(ctx context.Context, r ports.Repos, o *entity.Order, t entity.DocumentType, now time.Time) (stepResult, error) {
	existing, err := r.Documents.GetByOrderAndType(ctx, o.ID, t)
	if err != nil {
		return stepResult{}, err
	}
	if existing != nil {
		return stepResult{next: existing}, nil
	}
	doc, err := createDocumentInTx(ctx, r, o, t, now)
	if err != nil {
		return stepResult{}, err
	}
	return stepResult{next: doc, changed: true}, nil
}

// gatePaymentProof exige comprobante si la organización receptora de la INVOICE lo requiere.
// Un comprobante recibido en el reconocimiento queda adjunto al documento.
func (uc *DocumentChainUseCase) gatePaymentProof(ctx context.Context, r ports.Repos, d *entity.Document, proofRef string) error {
	if proofRef != "" {
		d.ProofRef = proofRef
	}
	receiver, err := r.Organizations.GetByID(ctx, d.ReceiverOrgID)
	if err != nil {
		return err
	}
	if receiver == nil {
		return domain.ErrNotFound
	}
	if receiver.RequirePaymentProof && d.ProofRef == "" {
		return domain.ErrPaymentProofRequired
	}
	return nil
}

func (uc *DocumentChainUseCase) verifyProof(ctx context.Context, ref string) error {
	if uc.verifier == nil {
		return nil
	}
	return uc.verifier.Verify(ctx, ref)
}

// load lee documento y orden fuera de transacción para calcular las claves de bloqueo.
func (uc *DocumentChainUseCase) load(ctx context.Context, documentID string) (*entity.Document, *entity.Order, error) {
	doc, err := uc.repos.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, domain.ErrNotFound
	}
	order, err := uc.repos.Orders.GetByID(ctx, doc.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, domain.ErrNotFound
	}
	return doc, order, nil
}

// chainKeys clave de la orden y, para PAYMENT, las claves de stock del vendedor.
func (uc *DocumentChainUseCase) chainKeys(doc *entity.Document, order *entity.Order) []string {
	keys := []string{ports.OrderKey(order.ID)}
	if doc.Type == entity.DocumentTypePayment {
		keys = append(keys, inventory.OrderStockKeys(order)...)
	}
	return keys
}

func lockDocument(ctx context.Context, r ports.Repos, documentID string) (*entity.Document, *entity.Order, error) {
	// Primero la orden y luego el documento: mismo orden de bloqueo que Approve y Delete
	d, err := r.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, domain.ErrNotFound
	}
	o, err := lockOrder(ctx, r, d.OrderID)
	if err != nil {
		return nil, nil, err
	}
	d, err = r.Documents.GetForUpdate(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, domain.ErrNotFound
	}
	return d, o, nil
}

// checkChainOpen la orden debe estar aprobada; solo el RECEIPT puede reconocerse con la orden cerrada.
func checkChainOpen(o *entity.Order, d *entity.Document) error {
	switch {
	case o.Status == entity.OrderStatusApproved:
		return nil
	case o.Status == entity.OrderStatusClosed && d.Type == entity.DocumentTypeReceipt:
		return nil
	}
	return fmt.Errorf("%w: la orden está %s", domain.ErrIllegalTransition, o.Status)
}
