package service

import (
	"container/heap"
	"context"
	"iter"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

const (
	timelinePageSize = 100
	defaultFanOut    = 8
)

// Timeline is a lazy, restartable view of one document's audit entries in (created_at, seq) order.
type Timeline struct {
	audit      port.AuditLogRepository
	documentID uuid.UUID
	pageSize   int
}

// All yields entries page by page. Each call starts from the beginning.
func (t *Timeline) All(ctx context.Context) iter.Seq2[domain.AuditEntry, error] {
	return func(yield func(domain.AuditEntry, error) bool) {
		var after *domain.AuditCursor
		for {
			page, err := t.audit.ListPage(ctx, t.documentID, after, t.pageSize)
			if err != nil {
				yield(domain.AuditEntry{}, storeErr("timeline.All", err))
				return
			}
			for i := range page {
				if !yield(page[i], nil) {
					return
				}
			}
			if len(page) < t.pageSize {
				return
			}
			c := page[len(page)-1].Cursor()
			after = &c
		}
	}
}

// Collect drains the timeline into a slice.
func (t *Timeline) Collect(ctx context.Context) ([]domain.AuditEntry, error) {
	entries := []domain.AuditEntry{}
	for e, err := range t.All(ctx) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// TimelineService reads the audit log.
type TimelineService interface {
	Timeline(documentID uuid.UUID) *Timeline
	GetTimeline(ctx context.Context, documentID uuid.UUID) ([]domain.AuditEntry, error)
	TimelineAcrossDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]domain.TimelineEntry, error)
	GetTimelineForActor(ctx context.Context, actorID int64) ([]domain.TimelineEntry, error)
}

type timelineService struct {
	tx     port.TxManager
	dir    *Directory
	fanOut int
}

// NewTimelineService creates a new TimelineService. fanOut bounds concurrent per-document reads.
func NewTimelineService(tx port.TxManager, dir *Directory, fanOut int) TimelineService {
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}
	return &timelineService{tx: tx, dir: dir, fanOut: fanOut}
}

func (s *timelineService) Timeline(documentID uuid.UUID) *Timeline {
	return &Timeline{audit: s.tx.Repositories().Audit, documentID: documentID, pageSize: timelinePageSize}
}

// GetTimeline returns the full timeline. An unknown document has an empty timeline.
// GetTimeline returns ErrDocumentNotFound for an id with no trail. Deleted documents keep theirs.
func (s *timelineService) GetTimeline(ctx context.Context, documentID uuid.UUID) ([]domain.AuditEntry, error) {
	entries, err := s.Timeline(documentID).Collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	return entries, nil
}

func (s *timelineService) TimelineAcrossDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]domain.TimelineEntry, error) {
	perDoc := make([][]domain.AuditEntry, len(documentIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, id := range documentIDs {
		g.Go(func() error {
			entries, err := s.Timeline(id).Collect(gctx)
			if err != nil {
				return err
			}
			perDoc[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeTimelines(perDoc)
	codes := s.documentCodes(ctx, documentIDs)
	names := newNameCache(s.dir)
	out := make([]domain.TimelineEntry, len(merged))
	for i, e := range merged {
		out[i] = domain.TimelineEntry{
			AuditEntry:         e,
			DocumentCode:       codes[e.DocumentID],
			ActedByName:        names.user(ctx, e.ActedBy),
			FromDepartmentName: names.department(ctx, e.FromDepartmentID),
			ToDepartmentName:   names.department(ctx, e.ToDepartmentID),
		}
	}
	return out, nil
}

// documentCodes resolves human codes for display. Deleted or unknown documents map to "Unknown".
func (s *timelineService) documentCodes(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	repos := s.tx.Repositories()
	codes := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if req, err := repos.Requests.GetByID(ctx, id, port.LockNone); err == nil {
			codes[id] = req.HumanCode
			continue
		}
		if doc, err := repos.Gates.GetByID(ctx, id, port.LockNone); err == nil {
			codes[id] = doc.HumanCode
			continue
		}
		codes[id] = UnresolvedReferenceName
	}
	return codes
}

func (s *timelineService) GetTimelineForActor(ctx context.Context, actorID int64) ([]domain.TimelineEntry, error) {
	repos := s.tx.Repositories()
	requestIDs, err := repos.Requests.ListIDsByCreator(ctx, actorID)
	if err != nil {
		return nil, storeErr("timelineService.GetTimelineForActor", err)
	}
	gateIDs, err := repos.Gates.ListIDsBySubmitter(ctx, actorID)
	if err != nil {
		return nil, storeErr("timelineService.GetTimelineForActor", err)
	}
	return s.TimelineAcrossDocuments(ctx, append(requestIDs, gateIDs...))
}

// timelineHead is the next unread entry of one per-document timeline.
type timelineHead struct {
	lane int
	pos  int
}

type headHeap struct {
	heads []timelineHead
	lanes [][]domain.AuditEntry
}

func (h *headHeap) Len() int { return len(h.heads) }
func (h *headHeap) Less(i, j int) bool {
	a, b := h.heads[i], h.heads[j]
	return h.lanes[a.lane][a.pos].Before(&h.lanes[b.lane][b.pos])
}
func (h *headHeap) Swap(i, j int) { h.heads[i], h.heads[j] = h.heads[j], h.heads[i] }
func (h *headHeap) Push(x any)   { h.heads = append(h.heads, x.(timelineHead)) }
func (h *headHeap) Pop() any {
	last := h.heads[len(h.heads)-1]
	h.heads = h.heads[:len(h.heads)-1]
	return last
}

// mergeTimelines k-way merges per-document timelines, each already in (created_at, seq) order.
func mergeTimelines(lanes [][]domain.AuditEntry) []domain.AuditEntry {
	total := 0
	h := &headHeap{lanes: lanes}
	for i, lane := range lanes {
		total += len(lane)
		if len(lane) > 0 {
			h.heads = append(h.heads, timelineHead{lane: i})
		}
	}
	heap.Init(h)

	out := make([]domain.AuditEntry, 0, total)
	for h.Len() > 0 {
		top := h.heads[0]
		out = append(out, lanes[top.lane][top.pos])
		if top.pos+1 < len(lanes[top.lane]) {
			h.heads[0].pos++
			heap.Fix(h, 0)
		} else {
			heap.Pop(h)
		}
	}
	return out
}
