package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// CreateRequestInput is the DTO for creating a canonical request.
type CreateRequestInput struct {
	RequesterID             int64
	Purpose                 string
	DestinationDepartmentID int64
	CreatedBy               int64
	Attachments             []string
	IdempotencyKey          string
}

// CommandParams carries the optional arguments of a routing command.
type CommandParams struct {
	// ToDepartmentID is the Forward destination; nil records a return to sender.
	ToDepartmentID *int64
	Remarks        string
	// Expect is the state the caller observed. When set, the command fails with
	// domain.ErrConflict unless the document is still in exactly this state.
	Expect         *domain.RequestState
	IdempotencyKey string
}

// WorkflowService is the routing engine for canonical requests.
type WorkflowService interface {
	CreateDocument(ctx context.Context, actor domain.Actor, input *CreateRequestInput) (*domain.Request, error)
	ApplyCommand(ctx context.Context, documentID uuid.UUID, cmd domain.Command, actor domain.Actor, params CommandParams) (*domain.Request, error)
	Sign(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (*domain.Signature, error)
	GetRequest(ctx context.Context, documentID uuid.UUID) (*domain.Request, error)
	ListByRequester(ctx context.Context, actor domain.Actor, offset, limit int) ([]domain.Request, int, error)
	ListByDepartment(ctx context.Context, actor domain.Actor, status *domain.RequestStatus, offset, limit int) ([]domain.Request, int, error)
	Delete(ctx context.Context, documentID uuid.UUID, actor domain.Actor) error
}

type workflowService struct {
	tx       port.TxManager
	dir      *Directory
	ledger   *SignatureLedger
	notifier port.Notifier
	locks    *docLocks
	codes    *codeGenerator
	messages messageBuilder
	log      *zap.Logger
}

// NewWorkflowService creates a new WorkflowService implementation.
func NewWorkflowService(
	tx port.TxManager,
	dir *Directory,
	ledger *SignatureLedger,
	notifier port.Notifier,
	linkBase string,
	log *zap.Logger,
) WorkflowService {
	return &workflowService{
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

func keyPtr(key string) *string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return &key
}

// replayed returns the entry recorded under key, or nil when the key is unused.
func (s *workflowService) replayed(ctx context.Context, key *string, documentID uuid.UUID) (*domain.AuditEntry, error) {
	if key == nil {
		return nil, nil
	}
	entry, err := s.tx.Repositories().Audit.GetByIdempotencyKey(ctx, *key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("workflowService.replayed", err)
	}
	if documentID != uuid.Nil && entry.DocumentID != documentID {
		return nil, domain.Validationf("idempotency key was used for another document")
	}
	return entry, nil
}

func validateCreate(input *CreateRequestInput) error {
	if input.RequesterID <= 0 {
		return domain.Validationf("requester is required")
	}
	if strings.TrimSpace(input.Purpose) == "" {
		return domain.Validationf("purpose is required")
	}
	if input.DestinationDepartmentID <= 0 {
		return domain.Validationf("destination department is required")
	}
	for i, a := range input.Attachments {
		if strings.TrimSpace(a) == "" {
			return domain.Validationf("attachments[%d] is empty", i)
		}
	}
	return nil
}

func (s *workflowService) CreateDocument(ctx context.Context, actor domain.Actor, input *CreateRequestInput) (req *domain.Request, err error) {
	defer func() { recordCommand(domain.KindRequest, domain.CommandCreate, err) }()

	if _, err = domain.Authorize(actor.Role, domain.CommandCreate); err != nil {
		return nil, err
	}
	if err = validateCreate(input); err != nil {
		return nil, err
	}
	key := keyPtr(input.IdempotencyKey)
	if prior, perr := s.replayed(ctx, key, uuid.Nil); perr != nil || prior != nil {
		if perr != nil {
			return nil, perr
		}
		return s.GetRequest(ctx, prior.DocumentID)
	}
	if _, err = s.dir.Department(ctx, input.DestinationDepartmentID); err != nil {
		return nil, err
	}

	createdBy := input.CreatedBy
	if createdBy == 0 {
		createdBy = actor.UserID
	}
	requesterID := input.RequesterID
	requesterName := s.dir.UserName(ctx, &requesterID)
	attachments := domain.StringList(input.Attachments)
	if attachments == nil {
		attachments = domain.StringList{}
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		req = &domain.Request{
			ID:                  uuid.New(),
			HumanCode:           s.codes.Next("REQ"),
			RequesterID:         requesterID,
			RequesterName:       requesterName,
			Purpose:             strings.TrimSpace(input.Purpose),
			CurrentDepartmentID: input.DestinationDepartmentID,
			Status:              domain.RequestStatusToReceive,
			Attachments:         attachments,
			CreatedBy:           createdBy,
		}
		dest := input.DestinationDepartmentID
		entry := &domain.AuditEntry{
			DocumentKind:   domain.KindRequest,
			Action:         domain.AuditCreated,
			ToDepartmentID: &dest,
			ActedBy:        &createdBy,
			Remarks:        domain.DefaultRemarks(domain.AuditCreated, &dest),
			IdempotencyKey: key,
		}
		err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
			if err := repos.Requests.Create(ctx, req); err != nil {
				return err
			}
			entry.DocumentID = req.ID
			return repos.Audit.Append(ctx, entry)
		})
		if errors.Is(err, domain.ErrDuplicateHumanCode) {
			s.log.Warn("human code collision, regenerating",
				zap.String("human_code", req.HumanCode), zap.Int("attempt", attempt))
			continue
		}
		break
	}
	if err != nil {
		return nil, storeErr("workflowService.CreateDocument", err)
	}

	req.SignerIDs = []int64{}
	s.log.Info("request created",
		zap.String("document_id", req.ID.String()),
		zap.String("human_code", req.HumanCode),
		zap.Int64("department_id", req.CurrentDepartmentID),
		zap.Int64("created_by", createdBy))
	return req, nil
}

func (s *workflowService) ApplyCommand(ctx context.Context, documentID uuid.UUID, cmd domain.Command, actor domain.Actor, params CommandParams) (req *domain.Request, err error) {
	defer func() { recordCommand(domain.KindRequest, cmd, err) }()

	if !domain.RoutingCommands[cmd] {
		return nil, domain.Validationf("unsupported command %q", cmd)
	}
	capability, err := domain.Authorize(actor.Role, cmd)
	if err != nil {
		return nil, err
	}
	key := keyPtr(params.IdempotencyKey)
	if prior, perr := s.replayed(ctx, key, documentID); perr != nil || prior != nil {
		if perr != nil {
			return nil, perr
		}
		if prior.Action != domain.RequestTransitions[cmd].Action {
			return nil, domain.Validationf("idempotency key was used for %s, not %s", prior.Action, cmd)
		}
		return s.GetRequest(ctx, documentID)
	}
	if cmd == domain.CommandForward && params.ToDepartmentID != nil {
		if _, err = s.dir.Department(ctx, *params.ToDepartmentID); err != nil {
			return nil, err
		}
	}

	// Without an explicit Expect the state seen at command start is the expectation,
	// so a command that lost a race reports ErrConflict.
	expect := params.Expect
	if expect == nil {
		start, gerr := s.tx.Repositories().Requests.GetByID(ctx, documentID, port.LockNone)
		if gerr != nil {
			return nil, storeErr("workflowService.ApplyCommand", gerr)
		}
		snapshot := start.State()
		expect = &snapshot
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	var entry domain.AuditEntry
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Requests.GetByID(ctx, documentID, port.LockUpdate)
		if err != nil {
			return err
		}
		snapshot := current.State()
		if *expect != snapshot {
			return domain.ErrConflict
		}

		next, planned, err := domain.PlanRequestCommand(snapshot, cmd, actor.UserID, params.ToDepartmentID, params.Remarks)
		if err != nil {
			return err
		}
		if err := capability.CheckScope(actor, snapshot.DepartmentID); err != nil {
			return err
		}

		if err := repos.Requests.UpdateState(ctx, documentID, snapshot, next); err != nil {
			return err
		}
		planned.DocumentID = documentID
		planned.IdempotencyKey = key
		if err := repos.Audit.Append(ctx, &planned); err != nil {
			return err
		}

		current.Status = next.Status
		current.CurrentDepartmentID = next.DepartmentID
		req = current
		entry = planned
		return nil
	})
	if err != nil {
		return nil, storeErr("workflowService.ApplyCommand", err)
	}

	signers, serr := s.ledger.Signers(ctx, documentID)
	if serr != nil {
		s.log.Warn("loading signers after command", zap.String("document_id", documentID.String()), zap.Error(serr))
	}
	req.SignerIDs = signers

	s.log.Info("request command applied",
		zap.String("document_id", documentID.String()),
		zap.String("command", string(cmd)),
		zap.String("status", string(req.Status)),
		zap.Int64("department_id", req.CurrentDepartmentID),
		zap.Int64("actor_id", actor.UserID))

	deptName := s.dir.DepartmentName(ctx, entry.ToDepartmentID)
	s.notifier.Notify(ctx, s.messages.requestUpdate(req, &entry, deptName))
	return req, nil
}

func (s *workflowService) Sign(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (sig *domain.Signature, err error) {
	defer func() { recordCommand(domain.KindRequest, domain.CommandSign, err) }()

	if _, err = domain.Authorize(actor.Role, domain.CommandSign); err != nil {
		return nil, err
	}
	policy, err := domain.PolicyFor(domain.KindRequest)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.RLock(documentID)
	defer unlock()

	var req *domain.Request
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Requests.GetByID(ctx, documentID, port.LockShare)
		if err != nil {
			return err
		}
		if !policy.CanSignRequest(current.Status) {
			return domain.ErrInvalidTransition
		}
		signed, err := s.ledger.sign(ctx, repos, documentID, actor.UserID)
		if err != nil {
			return err
		}
		dept := current.CurrentDepartmentID
		signer := actor.UserID
		if err := repos.Audit.Append(ctx, &domain.AuditEntry{
			DocumentID:       documentID,
			DocumentKind:     domain.KindRequest,
			Action:           domain.AuditReviewed,
			FromDepartmentID: &dept,
			ToDepartmentID:   &dept,
			ActedBy:          &signer,
			Remarks:          domain.DefaultRemarks(domain.AuditReviewed, &dept),
		}); err != nil {
			return err
		}
		req = current
		sig = signed
		return nil
	})
	if err != nil {
		return nil, storeErr("workflowService.Sign", err)
	}

	s.log.Info("request signed",
		zap.String("document_id", documentID.String()),
		zap.Int64("signer_id", actor.UserID))

	signerID := actor.UserID
	for _, n := range s.messages.signed(domain.KindRequest, req.ID, req.HumanCode, req.RequesterID, sig, s.dir.UserName(ctx, &signerID)) {
		s.notifier.Notify(ctx, n)
	}
	return sig, nil
}

func (s *workflowService) GetRequest(ctx context.Context, documentID uuid.UUID) (*domain.Request, error) {
	req, err := s.tx.Repositories().Requests.GetByID(ctx, documentID, port.LockNone)
	if err != nil {
		return nil, storeErr("workflowService.GetRequest", err)
	}
	signers, err := s.ledger.Signers(ctx, documentID)
	if err != nil {
		return nil, err
	}
	req.SignerIDs = signers
	return req, nil
}

func (s *workflowService) ListByRequester(ctx context.Context, actor domain.Actor, offset, limit int) ([]domain.Request, int, error) {
	reqs, total, err := s.tx.Repositories().Requests.ListByRequester(ctx, actor.UserID, offset, limit)
	if err != nil {
		return nil, 0, storeErr("workflowService.ListByRequester", err)
	}
	return reqs, total, nil
}

func (s *workflowService) ListByDepartment(ctx context.Context, actor domain.Actor, status *domain.RequestStatus, offset, limit int) ([]domain.Request, int, error) {
	if status != nil && !domain.ValidRequestStatuses[*status] {
		return nil, 0, domain.Validationf("unknown status %q", *status)
	}
	reqs, total, err := s.tx.Repositories().Requests.ListByDepartment(ctx, actor.DepartmentID, status, offset, limit)
	if err != nil {
		return nil, 0, storeErr("workflowService.ListByDepartment", err)
	}
	return reqs, total, nil
}

// Delete withdraws a request nobody has acted on yet. It is a compensating action:
// the audit trail is kept and closed with a DELETED entry.
func (s *workflowService) Delete(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (err error) {
	defer func() { recordCommand(domain.KindRequest, domain.CommandDelete, err) }()

	if _, err = domain.Authorize(actor.Role, domain.CommandDelete); err != nil {
		return err
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		req, err := repos.Requests.GetByID(ctx, documentID, port.LockUpdate)
		if err != nil {
			return err
		}
		if req.RequesterID != actor.UserID && req.CreatedBy != actor.UserID {
			return domain.ErrUnauthorized
		}
		if req.Status != domain.RequestStatusToReceive {
			return domain.ErrInvalidTransition
		}
		entries, err := repos.Audit.Count(ctx, documentID)
		if err != nil {
			return err
		}
		signatures, err := repos.Signatures.Count(ctx, documentID)
		if err != nil {
			return err
		}
		if entries != 1 || signatures != 0 {
			return domain.ErrInvalidTransition
		}

		dept := req.CurrentDepartmentID
		actorID := actor.UserID
		if err := repos.Audit.Append(ctx, &domain.AuditEntry{
			DocumentID:       documentID,
			DocumentKind:     domain.KindRequest,
			Action:           domain.AuditDeleted,
			FromDepartmentID: &dept,
			ActedBy:          &actorID,
			Remarks:          domain.DefaultRemarks(domain.AuditDeleted, nil),
		}); err != nil {
			return err
		}
		return repos.Requests.Delete(ctx, documentID)
	})
	if err != nil {
		return storeErr("workflowService.Delete", err)
	}
	s.log.Info("request withdrawn", zap.String("document_id", documentID.String()), zap.Int64("actor_id", actor.UserID))
	return nil
}
