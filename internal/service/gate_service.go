package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// SubmitGateInput is the DTO for submitting a gate document.
type SubmitGateInput struct {
	Kind              domain.DocumentKind
	Purpose           string
	Details           json.RawMessage
	Attachments       []string
	RequiredSignerIDs []int64
	IdempotencyKey    string
}

// UpdateGateInput replaces the editable content of a pending gate document.
type UpdateGateInput struct {
	Purpose           string
	Details           json.RawMessage
	Attachments       []string
	RequiredSignerIDs []int64
}

// GateService drives clearances, pass slips, travel orders and accomplishment reports
// through the dean and president approval gate.
type GateService interface {
	Submit(ctx context.Context, actor domain.Actor, input *SubmitGateInput) (*domain.GateDocument, error)
	Decide(ctx context.Context, documentID uuid.UUID, cmd domain.Command, actor domain.Actor, remarks string) (*domain.GateDocument, error)
	Sign(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (*domain.Signature, error)
	Update(ctx context.Context, documentID uuid.UUID, actor domain.Actor, input *UpdateGateInput) (*domain.GateDocument, error)
	Delete(ctx context.Context, documentID uuid.UUID, actor domain.Actor) error
	Get(ctx context.Context, documentID uuid.UUID) (*domain.GateDocument, error)
	ListMine(ctx context.Context, actor domain.Actor, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error)
	ListAwaiting(ctx context.Context, actor domain.Actor, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error)
}

type gateService struct {
	tx       port.TxManager
	dir      *Directory
	ledger   *SignatureLedger
	notifier port.Notifier
	locks    *docLocks
	codes    *codeGenerator
	messages messageBuilder
	log      *zap.Logger
}

// NewGateService creates a new GateService implementation.
func NewGateService(
	tx port.TxManager,
	dir *Directory,
	ledger *SignatureLedger,
	notifier port.Notifier,
	linkBase string,
	log *zap.Logger,
) GateService {
	return &gateService{
		tx:       tx,
		dir:      dir,
		ledger:   ledger,
		notifier: notifier,
		locks:    newDocLocks(),
		codes:    newCodeGenerator(),
		messages: messageBuilder{linkBase: linkBase},
		log:      log,
	}
}

func gatePolicy(kind domain.DocumentKind) (domain.Policy, error) {
	if !domain.GateKinds[kind] {
		return domain.Policy{}, domain.Validationf("%q is not a gate document kind", kind)
	}
	return domain.PolicyFor(kind)
}

// normalizeSigners drops non-positive ids and duplicates while keeping order.
func normalizeSigners(ids []int64) domain.Int64List {
	out := domain.Int64List{}
	for _, id := range ids {
		if id > 0 && !out.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

type gateContent struct {
	purpose     string
	details     json.RawMessage
	attachments domain.StringList
	signers     domain.Int64List
}

func validateGateContent(p domain.Policy, purpose string, details json.RawMessage, attachments []string, signers []int64) (*gateContent, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, domain.Validationf("purpose is required")
	}
	canonical, err := domain.ValidateDetails(p.Kind, details)
	if err != nil {
		return nil, err
	}
	list := domain.StringList{}
	for i, a := range attachments {
		if strings.TrimSpace(a) == "" {
			return nil, domain.Validationf("attachments[%d] is empty", i)
		}
		list = append(list, a)
	}
	required := normalizeSigners(signers)
	if p.AutoAdvanceOnFullSignature && len(required) == 0 {
		return nil, domain.Validationf("%s needs at least one required signer", p.Kind)
	}
	return &gateContent{purpose: purpose, details: canonical, attachments: list, signers: required}, nil
}

func (s *gateService) Submit(ctx context.Context, actor domain.Actor, input *SubmitGateInput) (doc *domain.GateDocument, err error) {
	defer func() { recordCommand(input.Kind, domain.CommandCreate, err) }()

	if _, err = domain.Authorize(actor.Role, domain.CommandCreate); err != nil {
		return nil, err
	}
	policy, err := gatePolicy(input.Kind)
	if err != nil {
		return nil, err
	}
	content, err := validateGateContent(policy, input.Purpose, input.Details, input.Attachments, input.RequiredSignerIDs)
	if err != nil {
		return nil, err
	}

	key := keyPtr(input.IdempotencyKey)
	if key != nil {
		prior, perr := s.tx.Repositories().Audit.GetByIdempotencyKey(ctx, *key)
		switch {
		case perr == nil:
			return s.Get(ctx, prior.DocumentID)
		case !errors.Is(perr, domain.ErrNotFound):
			return nil, storeErr("gateService.Submit", perr)
		}
	}

	submitterID := actor.UserID
	submitterName := s.dir.UserName(ctx, &submitterID)
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		doc = &domain.GateDocument{
			ID:                uuid.New(),
			Kind:              input.Kind,
			HumanCode:         s.codes.Next(policy.CodePrefix),
			SubmitterID:       submitterID,
			SubmitterName:     submitterName,
			Purpose:           content.purpose,
			Details:           content.details,
			Attachments:       content.attachments,
			RequiredSignerIDs: content.signers,
			Status:            domain.GateStatusPending,
		}
		entry := &domain.AuditEntry{
			DocumentKind:   input.Kind,
			Action:         domain.AuditCreated,
			ActedBy:        &submitterID,
			Remarks:        strings.ToLower(strings.ReplaceAll(string(input.Kind), "_", " ")) + " submitted",
			IdempotencyKey: key,
		}
		err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
			if err := repos.Gates.Create(ctx, doc); err != nil {
				return err
			}
			entry.DocumentID = doc.ID
			return repos.Audit.Append(ctx, entry)
		})
		if errors.Is(err, domain.ErrDuplicateHumanCode) {
			s.log.Warn("human code collision, regenerating",
				zap.String("human_code", doc.HumanCode), zap.Int("attempt", attempt))
			continue
		}
		break
	}
	if err != nil {
		return nil, storeErr("gateService.Submit", err)
	}

	doc.SignerIDs = []int64{}
	s.log.Info("gate document submitted",
		zap.String("document_id", doc.ID.String()),
		zap.String("kind", string(doc.Kind)),
		zap.String("human_code", doc.HumanCode),
		zap.Int64("submitter_id", submitterID))
	return doc, nil
}

func (s *gateService) Decide(ctx context.Context, documentID uuid.UUID, cmd domain.Command, actor domain.Actor, remarks string) (doc *domain.GateDocument, err error) {
	kind := domain.DocumentKind("")
	defer func() { recordCommand(kind, cmd, err) }()

	if cmd != domain.CommandApprove && cmd != domain.CommandReject {
		return nil, domain.Validationf("unsupported command %q", cmd)
	}
	if _, err = domain.Authorize(actor.Role, cmd); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	var at time.Time
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Gates.GetByID(ctx, documentID, port.LockUpdate)
		if err != nil {
			return err
		}
		kind = current.Kind
		policy, err := gatePolicy(current.Kind)
		if err != nil {
			return err
		}
		next, action, err := domain.PlanGateDecision(policy, current.Status, cmd, actor.Role)
		if err != nil {
			return err
		}
		if err := repos.Gates.UpdateStatus(ctx, documentID, current.Status, next); err != nil {
			return err
		}
		if remarks = strings.TrimSpace(remarks); remarks == "" {
			remarks = domain.DefaultRemarks(action, nil)
			if action == domain.AuditDeclined {
				remarks = "Rejected"
			}
		}
		actorID := actor.UserID
		entry := &domain.AuditEntry{
			DocumentID:   documentID,
			DocumentKind: current.Kind,
			Action:       action,
			ActedBy:      &actorID,
			Remarks:      remarks,
		}
		if err := repos.Audit.Append(ctx, entry); err != nil {
			return err
		}
		current.Status = next
		doc = current
		at = entry.CreatedAt
		return nil
	})
	if err != nil {
		return nil, storeErr("gateService.Decide", err)
	}

	s.attachSigners(ctx, doc)
	s.log.Info("gate decision recorded",
		zap.String("document_id", documentID.String()),
		zap.String("command", string(cmd)),
		zap.String("status", string(doc.Status)),
		zap.Int64("actor_id", actor.UserID))
	s.notifier.Notify(ctx, s.messages.gateStatusChanged(doc, at))
	return doc, nil
}

// advanceIfComplete routes an auto-advancing document to the dean once every required
// signer has signed. It reports the time of the ROUTED entry, or the zero time.
func (s *gateService) advanceIfComplete(ctx context.Context, repos port.Repositories, policy domain.Policy, doc *domain.GateDocument) (time.Time, error) {
	if !policy.AutoAdvanceOnFullSignature || doc.Status != domain.GateStatusPending {
		return time.Time{}, nil
	}
	done, err := s.ledger.allSigned(ctx, repos, doc.ID, doc.RequiredSignerIDs)
	if err != nil || !done {
		return time.Time{}, err
	}
	next := policy.DeanQueue()
	if err := repos.Gates.UpdateStatus(ctx, doc.ID, doc.Status, next); err != nil {
		return time.Time{}, err
	}
	entry := &domain.AuditEntry{
		DocumentID:   doc.ID,
		DocumentKind: doc.Kind,
		Action:       domain.AuditRouted,
		Remarks:      domain.DefaultRemarks(domain.AuditRouted, nil),
	}
	if err := repos.Audit.Append(ctx, entry); err != nil {
		return time.Time{}, err
	}
	doc.Status = next
	return entry.CreatedAt, nil
}

// lockFor picks the in-process lock for a mutation that may change status. Auto-advancing
// kinds can move on a signature, so their signers serialize; others share the read side.
func (s *gateService) lockFor(documentID uuid.UUID, exclusive bool) (func(), port.LockMode) {
	if exclusive {
		return s.locks.Lock(documentID), port.LockUpdate
	}
	return s.locks.RLock(documentID), port.LockShare
}

func (s *gateService) Sign(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (sig *domain.Signature, err error) {
	kind := domain.DocumentKind("")
	defer func() { recordCommand(kind, domain.CommandSign, err) }()

	if _, err = domain.Authorize(actor.Role, domain.CommandSign); err != nil {
		return nil, err
	}
	peek, err := s.tx.Repositories().Gates.GetByID(ctx, documentID, port.LockNone)
	if err != nil {
		return nil, storeErr("gateService.Sign", err)
	}
	kind = peek.Kind
	policy, err := gatePolicy(peek.Kind)
	if err != nil {
		return nil, err
	}

	unlock, mode := s.lockFor(documentID, policy.AutoAdvanceOnFullSignature)
	defer unlock()

	var doc *domain.GateDocument
	var routedAt time.Time
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Gates.GetByID(ctx, documentID, mode)
		if err != nil {
			return err
		}
		if !policy.CanSignGate(current.Status) {
			return domain.ErrInvalidTransition
		}
		signed, err := s.ledger.sign(ctx, repos, documentID, actor.UserID)
		if err != nil {
			return err
		}
		signer := actor.UserID
		if err := repos.Audit.Append(ctx, &domain.AuditEntry{
			DocumentID:   documentID,
			DocumentKind: current.Kind,
			Action:       domain.AuditReviewed,
			ActedBy:      &signer,
			Remarks:      domain.DefaultRemarks(domain.AuditReviewed, nil),
		}); err != nil {
			return err
		}
		if routedAt, err = s.advanceIfComplete(ctx, repos, policy, current); err != nil {
			return err
		}
		doc = current
		sig = signed
		return nil
	})
	if err != nil {
		return nil, storeErr("gateService.Sign", err)
	}

	s.log.Info("gate document signed",
		zap.String("document_id", documentID.String()),
		zap.Int64("signer_id", actor.UserID),
		zap.Bool("routed", !routedAt.IsZero()))

	signerID := actor.UserID
	for _, n := range s.messages.signed(doc.Kind, doc.ID, doc.HumanCode, doc.SubmitterID, sig, s.dir.UserName(ctx, &signerID)) {
		s.notifier.Notify(ctx, n)
	}
	if !routedAt.IsZero() {
		s.notifier.Notify(ctx, s.messages.gateStatusChanged(doc, routedAt))
	}
	return sig, nil
}

func (s *gateService) Update(ctx context.Context, documentID uuid.UUID, actor domain.Actor, input *UpdateGateInput) (doc *domain.GateDocument, err error) {
	kind := domain.DocumentKind("")
	defer func() { recordCommand(kind, domain.CommandUpdate, err) }()

	if _, err = domain.Authorize(actor.Role, domain.CommandUpdate); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	var routedAt time.Time
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Gates.GetByID(ctx, documentID, port.LockUpdate)
		if err != nil {
			return err
		}
		kind = current.Kind
		if current.SubmitterID != actor.UserID {
			return domain.ErrUnauthorized
		}
		if current.Status != domain.GateStatusPending {
			return domain.ErrInvalidTransition
		}
		policy, err := gatePolicy(current.Kind)
		if err != nil {
			return err
		}
		content, err := validateGateContent(policy, input.Purpose, input.Details, input.Attachments, input.RequiredSignerIDs)
		if err != nil {
			return err
		}
		current.Purpose = content.purpose
		current.Details = content.details
		current.Attachments = content.attachments
		current.RequiredSignerIDs = content.signers
		if err := repos.Gates.UpdateContent(ctx, current, domain.GateStatusPending); err != nil {
			return err
		}
		actorID := actor.UserID
		if err := repos.Audit.Append(ctx, &domain.AuditEntry{
			DocumentID:   documentID,
			DocumentKind: current.Kind,
			Action:       domain.AuditUpdated,
			ActedBy:      &actorID,
			Remarks:      domain.DefaultRemarks(domain.AuditUpdated, nil),
		}); err != nil {
			return err
		}
		// A narrowed signer list may already be fully signed.
		if routedAt, err = s.advanceIfComplete(ctx, repos, policy, current); err != nil {
			return err
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, storeErr("gateService.Update", err)
	}

	s.attachSigners(ctx, doc)
	s.log.Info("gate document updated", zap.String("document_id", documentID.String()), zap.Int64("actor_id", actor.UserID))
	if !routedAt.IsZero() {
		s.notifier.Notify(ctx, s.messages.gateStatusChanged(doc, routedAt))
	}
	return doc, nil
}

func (s *gateService) Delete(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (err error) {
	kind := domain.DocumentKind("")
	defer func() { recordCommand(kind, domain.CommandDelete, err) }()

	if _, err = domain.Authorize(actor.Role, domain.CommandDelete); err != nil {
		return err
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Gates.GetByID(ctx, documentID, port.LockUpdate)
		if err != nil {
			return err
		}
		kind = current.Kind
		if current.SubmitterID != actor.UserID {
			return domain.ErrUnauthorized
		}
		if current.Status != domain.GateStatusPending {
			return domain.ErrInvalidTransition
		}
		signatures, err := repos.Signatures.Count(ctx, documentID)
		if err != nil {
			return err
		}
		if signatures != 0 {
			return domain.ErrInvalidTransition
		}
		actorID := actor.UserID
		if err := repos.Audit.Append(ctx, &domain.AuditEntry{
			DocumentID:   documentID,
			DocumentKind: current.Kind,
			Action:       domain.AuditDeleted,
			ActedBy:      &actorID,
			Remarks:      domain.DefaultRemarks(domain.AuditDeleted, nil),
		}); err != nil {
			return err
		}
		return repos.Gates.Delete(ctx, documentID)
	})
	if err != nil {
		return storeErr("gateService.Delete", err)
	}
	s.log.Info("gate document withdrawn", zap.String("document_id", documentID.String()), zap.Int64("actor_id", actor.UserID))
	return nil
}

func (s *gateService) attachSigners(ctx context.Context, doc *domain.GateDocument) {
	signers, err := s.ledger.Signers(ctx, doc.ID)
	if err != nil {
		s.log.Warn("loading signers", zap.String("document_id", doc.ID.String()), zap.Error(err))
		signers = []int64{}
	}
	doc.SignerIDs = signers
}

func (s *gateService) Get(ctx context.Context, documentID uuid.UUID) (*domain.GateDocument, error) {
	doc, err := s.tx.Repositories().Gates.GetByID(ctx, documentID, port.LockNone)
	if err != nil {
		return nil, storeErr("gateService.Get", err)
	}
	signers, err := s.ledger.Signers(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.SignerIDs = signers
	return doc, nil
}

func (s *gateService) ListMine(ctx context.Context, actor domain.Actor, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error) {
	if kind != nil && !domain.GateKinds[*kind] {
		return nil, 0, domain.Validationf("%q is not a gate document kind", *kind)
	}
	docs, total, err := s.tx.Repositories().Gates.ListBySubmitter(ctx, actor.UserID, kind, offset, limit)
	if err != nil {
		return nil, 0, storeErr("gateService.ListMine", err)
	}
	return docs, total, nil
}

// ListAwaiting returns the documents queued for the actor's decision: the dean queue for DEAN,
// documents approved by the dean for PRESIDENT.
func (s *gateService) ListAwaiting(ctx context.Context, actor domain.Actor, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error) {
	stages, err := domain.AwaitingStages(actor.Role, kind)
	if err != nil {
		return nil, 0, err
	}
	docs, total, err := s.tx.Repositories().Gates.ListInStages(ctx, stages, offset, limit)
	if err != nil {
		return nil, 0, storeErr("gateService.ListAwaiting", err)
	}
	return docs, total, nil
}
