package usecase

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"

	"github.com/pantrypal/backend/internal/domain"
	"github.com/pantrypal/backend/internal/scan"
)

// FlowState is the acquisition state machine's current phase.
type FlowState string

const (
	FlowScanning FlowState = "scanning"
	FlowLookup   FlowState = "lookup"
	FlowReview   FlowState = "review"
	FlowAccepted FlowState = "accepted"
	FlowTornDown FlowState = "torn_down"
)

// Resolver is the product resolution dependency of a flow.
type Resolver interface {
	Resolve(ctx context.Context, barcode string) (*domain.Product, error)
}

// FramePusher feeds frames into a flow's camera; the delivery layer's push
// camera implements it.
type FramePusher interface {
	Push(frame image.Image) bool
}

// FlowConfig makes the historical per-screen variations configuration
// instead of separate code paths.
type FlowConfig struct {
	// AllowManualEntry enables the typed-barcode edge alongside camera
	// detection. Both converge on the same resolver call.
	AllowManualEntry bool
}

// FlowDeps are the collaborators one flow needs.
type FlowDeps struct {
	Scanner   *scan.Manager
	Sink      scan.Sink
	Pusher    FramePusher
	Resolver  Resolver
	Inventory domain.InventoryGateway
	// OnAccepted fires exactly once per flow, on confirmation.
	OnAccepted func(*domain.EnrichedItem)
	// FlattenNotes builds the notes summary for the enriched item.
	FlattenNotes func(*domain.Product, string) string
}

// Flow is one acquisition: SCANNING -> LOOKUP -> REVIEW, with a manual-entry
// edge into LOOKUP and a scan-again edge back to SCANNING. Cancellation is
// valid in any state and discards in-flight lookups.
type Flow struct {
	id   string
	cfg  FlowConfig
	deps FlowDeps

	mu         sync.Mutex
	state      FlowState
	gen        uint64 // bumped on cancel/reset; stale lookups check it
	session    *scan.Session
	draft      *domain.Product
	accepted   bool
	confirming bool
}

// NewFlow creates a flow in the SCANNING state.
func NewFlow(id string, cfg FlowConfig, deps FlowDeps) *Flow {
	return &Flow{id: id, cfg: cfg, deps: deps, state: FlowScanning}
}

// ID returns the flow's identifier.
func (f *Flow) ID() string { return f.id }

// State returns the current state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns the record pre-filling the review form, or nil before
// REVIEW is reached.
func (f *Flow) Draft() *domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// BeginCameraAcquisition starts a scan session for this flow. Only valid in
// SCANNING. A device failure surfaces as domain.ErrDeviceUnavailable; the
// flow stays in SCANNING so the caller can offer manual entry instead.
func (f *Flow) BeginCameraAcquisition(ctx context.Context) error {
	f.mu.Lock()
	if f.state != FlowScanning {
		f.mu.Unlock()
		return fmt.Errorf("%w: begin camera in %s", domain.ErrFlowState, f.state)
	}
	gen := f.gen
	f.mu.Unlock()

	session, err := f.deps.Scanner.Start(ctx, f.deps.Sink, func(code string) {
		f.handleDetection(code, gen)
	})
	if err != nil {
		return err
	}

	f.mu.Lock()
	if f.gen != gen || f.state != FlowScanning {
		// Cancelled or torn down while the camera was being acquired.
		f.mu.Unlock()
		_ = f.deps.Scanner.Stop(session)
		return nil
	}
	f.session = session
	f.mu.Unlock()
	return nil
}

// PushFrame delivers one video frame to the flow's live scan session.
func (f *Flow) PushFrame(frame image.Image) bool {
	if f.deps.Pusher == nil {
		return false
	}
	return f.deps.Pusher.Push(frame)
}

// SubmitManualCode is the typed-input edge into LOOKUP. It validates the
// code, tears down any live session, and resolves synchronously.
func (f *Flow) SubmitManualCode(ctx context.Context, code string) error {
	if !f.cfg.AllowManualEntry {
		return fmt.Errorf("%w: manual entry disabled for this flow", domain.ErrFlowState)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.ErrInvalidBarcode
	}

	gen, ok := f.enterLookup()
	if !ok {
		return fmt.Errorf("%w: manual submit in %s", domain.ErrFlowState, f.State())
	}
	f.resolve(ctx, code, gen)
	return nil
}

// handleDetection is the camera edge into LOOKUP, driven by the scan
// session's single accepted detection.
func (f *Flow) handleDetection(code string, startGen uint64) {
	f.mu.Lock()
	stale := f.gen != startGen
	f.mu.Unlock()
	if stale {
		return
	}
	gen, ok := f.enterLookup()
	if !ok {
		return
	}
	// In-flight lookups survive cancellation; only their results are
	// discarded, so the background context is deliberate.
	f.resolve(context.Background(), code, gen)
}

// enterLookup performs the SCANNING -> LOOKUP transition, tearing down the
// scan session as part of it (the camera is not needed during lookup).
func (f *Flow) enterLookup() (uint64, bool) {
	f.mu.Lock()
	if f.state != FlowScanning {
		f.mu.Unlock()
		return 0, false
	}
	f.state = FlowLookup
	gen := f.gen
	session := f.session
	f.session = nil
	f.mu.Unlock()

	if session != nil {
		if err := f.deps.Scanner.Stop(session); err != nil {
			log.Printf("[Flow %s] session teardown: %v", f.id, err)
		}
	}
	return gen, true
}

// resolve runs the lookup and applies the result unless the flow moved on.
// LOOKUP -> REVIEW fires for every outcome: even NOT_FOUND and ERROR reach
// an editable, pre-filled review form.
func (f *Flow) resolve(ctx context.Context, code string, gen uint64) {
	product, err := f.deps.Resolver.Resolve(ctx, code)
	if err != nil {
		// Only invalid input reaches here; the camera path never produces
		// it, and the manual path validated already. Treat as degraded.
		product = domain.FallbackProduct(code, domain.OutcomeError)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.state != FlowLookup {
		// Cancelled while in flight: discard, never apply.
		return
	}
	f.draft = product
	f.state = FlowReview
}

// ScanAgain returns from REVIEW to SCANNING, discarding the draft. The
// caller restarts camera acquisition or submits manually from there.
func (f *Flow) ScanAgain() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowReview {
		return fmt.Errorf("%w: scan again in %s", domain.ErrFlowState, f.state)
	}
	f.state = FlowScanning
	f.draft = nil
	f.gen++
	return nil
}

// Confirm accepts the review form: it merges the user's edits into the
// resolved record, submits the enriched item to the inventory backend, and
// fires OnAccepted exactly once. On a persistence failure the flow stays in
// REVIEW so the user can retry.
func (f *Flow) Confirm(ctx context.Context, edits domain.ReviewEdits) (*domain.EnrichedItem, error) {
	f.mu.Lock()
	if f.state != FlowReview || f.draft == nil || f.confirming {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: confirm in %s", domain.ErrFlowState, f.state)
	}
	// Holds off overlapping confirms while the inventory call is in flight,
	// so the backend sees at most one creation request per acceptance.
	f.confirming = true
	item := f.enrich(edits)
	f.mu.Unlock()

	if f.deps.Inventory != nil {
		if err := f.deps.Inventory.CreateItem(ctx, item); err != nil {
			f.mu.Lock()
			f.confirming = false
			f.mu.Unlock()
			return nil, err
		}
	}

	f.mu.Lock()
	f.confirming = false
	if f.state != FlowReview || f.accepted {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: flow no longer confirmable", domain.ErrFlowState)
	}
	f.state = FlowAccepted
	f.accepted = true
	onAccepted := f.deps.OnAccepted
	f.mu.Unlock()

	if onAccepted != nil {
		onAccepted(item)
	}
	return item, nil
}

// enrich merges review edits with the draft. Caller holds f.mu.
func (f *Flow) enrich(edits domain.ReviewEdits) *domain.EnrichedItem {
	draft := f.draft
	item := &domain.EnrichedItem{
		Barcode:    draft.Barcode,
		Name:       draft.Name,
		Brand:      draft.Brand,
		ImageURL:   draft.ImageURL,
		Category:   draft.Category,
		Quantity:   edits.Quantity,
		Unit:       edits.Unit,
		Location:   edits.Location,
		Expiration: edits.Expiration,
		Outcome:    draft.Outcome,
	}
	if edits.Name != "" {
		item.Name = edits.Name
	}
	if edits.Category != "" {
		item.Category = edits.Category
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if f.deps.FlattenNotes != nil {
		item.Notes = f.deps.FlattenNotes(draft, edits.Notes)
	} else {
		item.Notes = edits.Notes
	}
	return item
}

// Cancel aborts whatever is in progress: the live session is torn down, the
// lookup generation is bumped so in-flight resolver completions are
// discarded, and the flow returns to SCANNING with no active session.
// A no-op once the flow is accepted or torn down.
func (f *Flow) Cancel() {
	f.mu.Lock()
	if f.state == FlowAccepted || f.state == FlowTornDown {
		f.mu.Unlock()
		return
	}
	f.gen++
	f.state = FlowScanning
	f.draft = nil
	session := f.session
	f.session = nil
	f.mu.Unlock()

	if session != nil {
		if err := f.deps.Scanner.Stop(session); err != nil {
			log.Printf("[Flow %s] cancel teardown: %v", f.id, err)
		}
	}
}

// Teardown disposes of the flow. Terminal; releases any live session.
func (f *Flow) Teardown() {
	f.mu.Lock()
	if f.state == FlowTornDown {
		f.mu.Unlock()
		return
	}
	f.gen++
	f.state = FlowTornDown
	f.draft = nil
	session := f.session
	f.session = nil
	f.mu.Unlock()

	if session != nil {
		if err := f.deps.Scanner.Stop(session); err != nil {
			log.Printf("[Flow %s] final teardown: %v", f.id, err)
		}
	}
}
