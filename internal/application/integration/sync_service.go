package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
)

// DefaultRunBudget bounds a sync run when no budget is configured
const DefaultRunBudget = 5 * time.Minute

// Profiling operation labels
const (
	opSyncProducts  = "sync_products"
	opSweep         = "sweep_deletions"
	opImportOrders  = "import_orders"
	opReconcileItem = "reconcile_product"
)

var errRunAbandoned = errors.New("integration: sync run exited without recording a result")

// runSuperseded labels run metrics for a run whose claim was taken over
const runSuperseded = "SUPERSEDED"

// SweepOptions controls a deletion sweep
type SweepOptions struct {
	// ConfirmEmptyRemote allows deleting every linked product when the
	// platform reports an empty catalog
	ConfirmEmptyRemote bool
}

// SweepResult summarizes a deletion sweep
type SweepResult struct {
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// SyncService reconciles remote catalogs and orders into local storage
type SyncService struct {
	connections integration.ConnectionRepository
	clients     integration.PlatformClientResolver
	catalog     integration.CatalogRepository
	orders      integration.OrderWriter
	tracker     *SyncStatusTracker
	events      shared.EventPublisher
	metrics     SyncObserver
	reconciler  *Reconciler
	runBudget   time.Duration
	logger      *zap.Logger
}

// SyncOption configures a SyncService
type SyncOption func(*SyncService)

// WithRunBudget bounds the wall-clock time spent fetching pages in one run
func WithRunBudget(d time.Duration) SyncOption {
	return func(s *SyncService) {
		if d > 0 {
			s.runBudget = d
		}
	}
}

// WithSyncObserver reports run measurements, e.g. to Prometheus
func WithSyncObserver(o SyncObserver) SyncOption {
	return func(s *SyncService) {
		if o != nil {
			s.metrics = o
		}
	}
}

// NewSyncService creates a new SyncService
func NewSyncService(
	connections integration.ConnectionRepository,
	clients integration.PlatformClientResolver,
	catalog integration.CatalogRepository,
	orders integration.OrderWriter,
	tracker *SyncStatusTracker,
	events shared.EventPublisher,
	logger *zap.Logger,
	opts ...SyncOption,
) *SyncService {
	s := &SyncService{
		connections: connections,
		clients:     clients,
		catalog:     catalog,
		orders:      orders,
		tracker:     tracker,
		events:      events,
		metrics:     nopObserver{},
		reconciler:  NewReconciler(),
		runBudget:   DefaultRunBudget,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Full catalog sync
// ---------------------------------------------------------------------------

// SyncProducts pulls the whole remote catalog page by page and applies the
// changes locally. Item failures are collected in the result. An auth failure
// ends the run with an error; any other fetch failure or an exhausted budget
// returns the partial result marked aborted.
func (s *SyncService) SyncProducts(ctx context.Context, connectionID uuid.UUID) (*integration.SyncResult, error) {
	ctx, span := tracer.Start(ctx, "sync.products")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrConnectionID, connectionID.String())

	ctx, conn, client, err := s.activeConnection(ctx, connectionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrMerchantID, conn.MerchantID,
		telemetry.SpanAttrPlatform, conn.Platform.String(),
	)

	run, err := s.begin(ctx, conn, true)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() { run.settle(ctx, recover()) }()

	publishEvents(ctx, s.events, s.logger, integration.NewSyncStartedEvent(conn))

	var (
		result integration.SyncResult
		runErr error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.SyncLabels(conn.Platform.String(), opSyncProducts), func(ctx context.Context) {
		result, runErr = s.syncPages(ctx, conn, client)
	})

	if runErr != nil {
		telemetry.RecordError(span, runErr)
		if err := run.fail(ctx, runErr, result); err != nil {
			s.log(ctx).Error("Failed to record sync failure", zap.Error(err))
		}
		return nil, runErr
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrItemsAdded, result.Added,
		telemetry.SpanAttrItemsUpdated, result.Updated,
		telemetry.SpanAttrItemsSkipped, result.Skipped,
		telemetry.SpanAttrItemsFailed, result.Failed,
		telemetry.SpanAttrSyncAborted, result.Aborted,
	)
	if err := run.complete(ctx, result); err != nil {
		telemetry.RecordError(span, err)
		return &result, err
	}
	if result.Status() == integration.SyncStatusCompleted {
		telemetry.SetOK(span)
	}
	return &result, nil
}

// SyncByMerchant resolves the merchant's connection and runs SyncProducts
func (s *SyncService) SyncByMerchant(ctx context.Context, merchantID string, platform integration.PlatformType) (*integration.SyncResult, error) {
	conn, err := s.connections.FindByMerchant(ctx, merchantID, platform)
	if err != nil {
		return nil, err
	}
	return s.SyncProducts(ctx, conn.ID)
}

// syncPages walks the remote catalog. Only page fetches are bounded by the
// run budget; the writes of a fetched page always complete.
func (s *SyncService) syncPages(ctx context.Context, conn *integration.Connection, client integration.PlatformClient) (integration.SyncResult, error) {
	builder := integration.NewSyncResultBuilder()

	runCtx, cancel := context.WithTimeout(ctx, s.runBudget)
	defer cancel()

	cursor := ""
	for page := 1; ; page++ {
		if reason := budgetExhausted(ctx, runCtx, page); reason != "" {
			builder.Abort(reason)
			break
		}

		next, err := s.syncPage(ctx, runCtx, conn, client, builder, page, cursor)
		if err != nil {
			if errors.Is(err, integration.ErrPlatformAuthFailed) {
				return builder.Build(), err
			}
			if reason := budgetExhausted(ctx, runCtx, page); reason != "" {
				builder.Abort(reason)
			} else {
				builder.Abort(fmt.Sprintf("fetch page %d: %v", page, err))
			}
			s.log(ctx).Warn("Sync aborted",
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return builder.Build(), nil
}

// syncPage fetches and applies one page, returning the next cursor
func (s *SyncService) syncPage(
	ctx, fetchCtx context.Context,
	conn *integration.Connection,
	client integration.PlatformClient,
	builder *integration.SyncResultBuilder,
	page int,
	cursor string,
) (string, error) {
	ctx, span := tracer.Start(ctx, "sync.products.page")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPage, page)

	fetched, err := client.FetchProducts(trace.ContextWithSpan(fetchCtx, span), conn.Credentials, cursor)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}
	for _, bad := range fetched.Invalid {
		builder.RecordFailure(&integration.PerItemSyncError{PlatformProductID: bad.PlatformID, Op: "decode", Err: bad})
	}

	ids := make([]string, 0, len(fetched.Items))
	for i := range fetched.Items {
		if id := fetched.Items[i].ID; id != "" {
			ids = append(ids, id)
		}
	}
	local, err := s.catalog.FindByPlatformIDs(ctx, conn.ID, ids)
	if err != nil {
		// without the local view every item of the page is unknown
		for i := range fetched.Items {
			builder.RecordFailure(&integration.PerItemSyncError{
				PlatformProductID: fetched.Items[i].ID,
				SKU:               fetched.Items[i].SKU,
				Op:                "load local",
				Err:               err,
			})
		}
		telemetry.RecordError(span, err)
		return fetched.NextCursor, nil
	}

	for _, change := range s.reconciler.Stage(local, fetched.Items) {
		if err := s.apply(ctx, conn, change); err != nil {
			builder.RecordFailure(err)
			continue
		}
		recordChange(builder, change.Kind)
	}
	telemetry.SetAttributes(span, "sync.items", len(fetched.Items))
	return fetched.NextCursor, nil
}

// budgetExhausted returns an abort reason once the run budget or the caller's
// context is done
func budgetExhausted(parent, runCtx context.Context, page int) string {
	switch {
	case parent.Err() != nil:
		return fmt.Sprintf("sync cancelled before page %d: %v", page, parent.Err())
	case runCtx.Err() != nil:
		return fmt.Sprintf("run budget exceeded before page %d completed", page)
	default:
		return ""
	}
}

func recordChange(builder *integration.SyncResultBuilder, kind ChangeKind) {
	switch kind {
	case ChangeCreate:
		builder.RecordCreate()
	case ChangeUpdate:
		builder.RecordUpdate()
	case ChangeSkip:
		builder.RecordSkip()
	}
}

// apply writes one staged change and publishes its event. Failures come back
// as *PerItemSyncError.
func (s *SyncService) apply(ctx context.Context, conn *integration.Connection, change StagedChange) error {
	remote := change.Remote
	switch change.Kind {
	case ChangeInvalid:
		return change.Err
	case ChangeSkip:
		return nil
	case ChangeCreate:
		product, err := integration.NewCatalogProduct(conn, remote)
		if err == nil {
			err = s.catalog.Create(ctx, product)
		}
		if err != nil {
			return &integration.PerItemSyncError{PlatformProductID: remote.ID, SKU: remote.SKU, Op: "create", Err: err}
		}
		publishEvents(ctx, s.events, s.logger,
			integration.NewProductImportedEvent(conn, product, integration.ProductChangeCreated))
		return nil
	case ChangeUpdate:
		product := change.Local
		product.ApplyRemote(remote)
		if err := s.catalog.Update(ctx, product); err != nil {
			return &integration.PerItemSyncError{PlatformProductID: remote.ID, SKU: remote.SKU, Op: "update", Err: err}
		}
		publishEvents(ctx, s.events, s.logger,
			integration.NewProductImportedEvent(conn, product, integration.ProductChangeUpdated))
		return nil
	default:
		return fmt.Errorf("integration: unknown change kind %q", change.Kind)
	}
}

// ---------------------------------------------------------------------------
// Single-item paths
// ---------------------------------------------------------------------------

// ReconcileProduct applies one remote product without taking the run gate.
// Webhooks use it; each call is an idempotent per-item write.
func (s *SyncService) ReconcileProduct(ctx context.Context, connectionID uuid.UUID, remote *integration.PlatformProduct) (ChangeKind, error) {
	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		return "", err
	}
	return s.reconcileWith(ctx, conn, remote)
}

func (s *SyncService) reconcileWith(ctx context.Context, conn *integration.Connection, remote *integration.PlatformProduct) (ChangeKind, error) {
	ctx, span := tracer.Start(ctx, "sync.reconcile_product")
	defer span.End()

	var local *integration.CatalogProduct
	if remote != nil && remote.ID != "" {
		telemetry.SetAttributes(span, telemetry.SpanAttrProductID, remote.ID)
		found, err := s.catalog.FindByPlatformID(ctx, conn.ID, remote.ID)
		switch {
		case err == nil:
			local = found
		case !errors.Is(err, integration.ErrProductNotFound):
			telemetry.RecordError(span, err)
			return "", err
		}
	}

	change := s.reconciler.Classify(local, remote)
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.SyncLabels(conn.Platform.String(), opReconcileItem), func(ctx context.Context) {
		err = s.apply(ctx, conn, change)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return change.Kind, err
	}
	return change.Kind, nil
}

// PushProduct creates the product on the platform when it has no ID and
// updates it otherwise, then reconciles the platform's copy locally
func (s *SyncService) PushProduct(ctx context.Context, connectionID uuid.UUID, product *integration.PlatformProduct) (*integration.PlatformProduct, error) {
	if product == nil {
		return nil, integration.ErrInvalidProduct
	}
	ctx, conn, client, err := s.activeConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	var pushed *integration.PlatformProduct
	if product.ID == "" {
		pushed, err = client.CreateProduct(ctx, conn.Credentials, product)
	} else {
		pushed, err = client.UpdateProduct(ctx, conn.Credentials, product)
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.reconcileWith(ctx, conn, pushed); err != nil {
		return pushed, err
	}
	return pushed, nil
}

// RemoveRemoteProduct deletes a product on the platform and then locally
func (s *SyncService) RemoveRemoteProduct(ctx context.Context, connectionID uuid.UUID, productID string) error {
	if productID == "" {
		return integration.ErrInvalidProduct
	}
	ctx, conn, client, err := s.activeConnection(ctx, connectionID)
	if err != nil {
		return err
	}
	if err := client.DeleteProduct(ctx, conn.Credentials, productID); err != nil {
		return err
	}
	return s.RemoveLocalProduct(ctx, conn, productID)
}

// RemoveLocalProduct deletes the local product linked to productID.
// Nothing linked is not an error.
func (s *SyncService) RemoveLocalProduct(ctx context.Context, conn *integration.Connection, productID string) error {
	err := s.catalog.Delete(ctx, conn.ID, productID)
	switch {
	case errors.Is(err, integration.ErrProductNotFound):
		return nil
	case err != nil:
		return err
	}
	publishEvents(ctx, s.events, s.logger, integration.NewProductRemovedEvent(conn, productID))
	return nil
}

// ---------------------------------------------------------------------------
// Deletion sweep
// ---------------------------------------------------------------------------

// SweepDeletions removes local products that no longer exist remotely. The
// complete remote listing must match the platform's reported count before
// anything is deleted.
func (s *SyncService) SweepDeletions(ctx context.Context, connectionID uuid.UUID, opts SweepOptions) (*SweepResult, error) {
	ctx, span := tracer.Start(ctx, "sync.sweep")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrConnectionID, connectionID.String())

	ctx, conn, client, err := s.activeConnection(ctx, connectionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	run, err := s.begin(ctx, conn, false)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() { run.settle(ctx, recover()) }()

	var result *SweepResult
	telemetry.WithProfilingLabels(ctx, telemetry.SyncLabels(conn.Platform.String(), opSweep), func(ctx context.Context) {
		result, err = s.sweep(ctx, conn, client, opts)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if ferr := run.fail(ctx, err, integration.SyncResult{}); ferr != nil {
			s.log(ctx).Error("Failed to record sweep failure", zap.Error(ferr))
		}
		return nil, err
	}

	summary := integration.SyncResult{
		Success: result.Failed == 0,
		Failed:  result.Failed,
		Errors:  result.Errors,
	}
	if err := run.complete(ctx, summary); err != nil {
		return result, err
	}
	s.log(ctx).Info("Deletion sweep finished",
		zap.Int("deleted", result.Deleted),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *SyncService) sweep(ctx context.Context, conn *integration.Connection, client integration.PlatformClient, opts SweepOptions) (*SweepResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.runBudget)
	defer cancel()

	remote := make(map[string]struct{})
	cursor := ""
	for {
		page, err := client.FetchProducts(runCtx, conn.Credentials, cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", integration.ErrSweepIncomplete, err)
		}
		for i := range page.Items {
			if id := page.Items[i].ID; id != "" {
				remote[id] = struct{}{}
			}
		}
		// undecodable products still exist remotely; without an ID the count check fails
		for _, bad := range page.Invalid {
			if bad.PlatformID != "" {
				remote[bad.PlatformID] = struct{}{}
			}
		}
		if !page.HasMore() {
			break
		}
		cursor = page.NextCursor
	}

	total, err := client.CountProducts(runCtx, conn.Credentials)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrSweepIncomplete, err)
	}
	local, err := s.catalog.ListPlatformIDs(ctx, conn.ID)
	if err != nil {
		return nil, err
	}

	if total == 0 && len(local) > 0 && !opts.ConfirmEmptyRemote {
		return nil, fmt.Errorf("%w: %d linked products", integration.ErrSweepUnconfirmed, len(local))
	}
	if len(remote) != total {
		return nil, fmt.Errorf("%w: fetched %d of %d reported", integration.ErrSweepIncomplete, len(remote), total)
	}

	result := &SweepResult{Errors: make([]string, 0)}
	for _, id := range local {
		if _, ok := remote[id]; ok {
			continue
		}
		if err := s.RemoveLocalProduct(ctx, conn, id); err != nil {
			result.Failed++
			result.Errors = append(result.Errors,
				(&integration.PerItemSyncError{PlatformProductID: id, Op: "delete", Err: err}).Error())
			continue
		}
		result.Deleted++
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// ImportOrders pages the remote order list into the order ledger under the
// same run gate as a catalog sync
func (s *SyncService) ImportOrders(ctx context.Context, connectionID uuid.UUID) (*integration.SyncResult, error) {
	ctx, span := tracer.Start(ctx, "sync.orders")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrConnectionID, connectionID.String())

	ctx, conn, client, err := s.activeConnection(ctx, connectionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	run, err := s.begin(ctx, conn, false)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() { run.settle(ctx, recover()) }()

	var result integration.SyncResult
	telemetry.WithProfilingLabels(ctx, telemetry.SyncLabels(conn.Platform.String(), opImportOrders), func(ctx context.Context) {
		result, err = s.importOrderPages(ctx, conn, client)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if ferr := run.fail(ctx, err, result); ferr != nil {
			s.log(ctx).Error("Failed to record order import failure", zap.Error(ferr))
		}
		return nil, err
	}
	if err := run.complete(ctx, result); err != nil {
		return &result, err
	}
	return &result, nil
}

func (s *SyncService) importOrderPages(ctx context.Context, conn *integration.Connection, client integration.PlatformClient) (integration.SyncResult, error) {
	builder := integration.NewSyncResultBuilder()
	runCtx, cancel := context.WithTimeout(ctx, s.runBudget)
	defer cancel()

	cursor := ""
	for page := 1; ; page++ {
		if reason := budgetExhausted(ctx, runCtx, page); reason != "" {
			builder.Abort(reason)
			break
		}
		fetched, err := client.FetchOrders(runCtx, conn.Credentials, cursor)
		if err != nil {
			if errors.Is(err, integration.ErrPlatformAuthFailed) {
				return builder.Build(), err
			}
			builder.Abort(fmt.Sprintf("fetch order page %d: %v", page, err))
			break
		}
		for _, bad := range fetched.Invalid {
			builder.RecordFailure(&integration.PerItemSyncError{Item: "order", PlatformProductID: bad.PlatformID, Op: "decode", Err: bad})
		}
		for i := range fetched.Items {
			created, err := s.ImportOrder(ctx, conn, &fetched.Items[i])
			switch {
			case err != nil:
				builder.RecordFailure(err)
			case created:
				builder.RecordCreate()
			default:
				builder.RecordUpdate()
			}
		}
		if !fetched.HasMore() {
			break
		}
		cursor = fetched.NextCursor
	}
	return builder.Build(), nil
}

// ImportOrder upserts one order into the ledger. It reports whether the order
// was new.
func (s *SyncService) ImportOrder(ctx context.Context, conn *integration.Connection, order *integration.PlatformOrder) (bool, error) {
	var id string
	if order != nil {
		id = order.ID
	}
	if err := order.Validate(); err != nil {
		return false, &integration.PerItemSyncError{Item: "order", PlatformProductID: id, Op: "validate", Err: err}
	}
	created, err := s.orders.Upsert(ctx, conn, order)
	if err != nil {
		return false, &integration.PerItemSyncError{Item: "order", PlatformProductID: id, Op: "upsert", Err: err}
	}
	publishEvents(ctx, s.events, s.logger, integration.NewOrderImportedEvent(conn, order.ID, created))
	return created, nil
}

// ---------------------------------------------------------------------------
// Run lifecycle
// ---------------------------------------------------------------------------

// activeConnection loads a connection that may call its platform. The
// returned context is tagged with the connection for logging.
func (s *SyncService) activeConnection(
	ctx context.Context,
	connectionID uuid.UUID,
) (context.Context, *integration.Connection, integration.PlatformClient, error) {
	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !conn.IsActive() {
		return nil, nil, nil, fmt.Errorf("%w: %s", integration.ErrConnectionInactive, conn.ID)
	}
	client, err := s.clients.Client(conn.Platform)
	if err != nil {
		return nil, nil, nil, err
	}
	return withConnection(ctx, conn), conn, client, nil
}

// withConnection tags ctx so run, SQL and event logs carry the merchant and
// connection IDs
func withConnection(ctx context.Context, conn *integration.Connection) context.Context {
	ctx = logger.WithMerchantID(ctx, conn.MerchantID)
	return logger.WithConnectionID(ctx, conn.ID.String())
}

// log returns the service logger with the correlation fields of ctx
func (s *SyncService) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, s.logger)
}

// begin claims the run gate for conn
func (s *SyncService) begin(ctx context.Context, conn *integration.Connection, observe bool) (*syncRun, error) {
	runID, err := s.tracker.BeginSync(ctx, conn.ID)
	if err != nil {
		return nil, err
	}
	if observe {
		s.metrics.SyncStarted()
	}
	return &syncRun{svc: s, conn: conn, runID: runID, started: time.Now(), observe: observe}, nil
}

// syncRun releases the tracker claim exactly once, whichever way a run ends
type syncRun struct {
	svc      *SyncService
	conn     *integration.Connection
	runID    uuid.UUID
	started  time.Time
	observe  bool
	released bool
}

// complete records the result and publishes SYNC_COMPLETED. A superseded
// run publishes nothing; the run that took over owns the outcome.
func (r *syncRun) complete(ctx context.Context, result integration.SyncResult) error {
	r.released = true
	err := r.svc.tracker.CompleteSync(context.WithoutCancel(ctx), r.conn.ID, r.runID, result)
	if errors.Is(err, integration.ErrSyncSuperseded) {
		r.observeRun(runSuperseded, result)
		return err
	}
	r.observeRun(result.Status().String(), result)
	if err != nil {
		return err
	}
	publishEvents(ctx, r.svc.events, r.svc.logger, integration.NewSyncCompletedEvent(r.conn, result))
	r.svc.log(ctx).Info("Sync run finished",
		zap.String("run_id", r.runID.String()),
		zap.String("status", result.Status().String()),
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Bool("aborted", result.Aborted),
		zap.Duration("duration", time.Since(r.started)),
	)
	return nil
}

// fail records a run that ended on an error
func (r *syncRun) fail(ctx context.Context, cause error, partial integration.SyncResult) error {
	r.released = true
	r.observeRun(integration.SyncStatusFailed.String(), partial)
	r.svc.log(ctx).Warn("Sync run failed",
		zap.String("run_id", r.runID.String()),
		zap.Error(cause),
	)
	return r.svc.tracker.FailSync(context.WithoutCancel(ctx), r.conn.ID, r.runID, cause)
}

// settle runs deferred: it releases a claim nobody released and re-panics
func (r *syncRun) settle(ctx context.Context, recovered any) {
	if r.released && recovered == nil {
		return
	}
	if !r.released {
		cause := errRunAbandoned
		if recovered != nil {
			cause = fmt.Errorf("integration: sync run panicked: %v", recovered)
		}
		if err := r.fail(ctx, cause, integration.SyncResult{}); err != nil {
			r.svc.log(ctx).Error("Failed to release sync claim",
				zap.String("run_id", r.runID.String()),
				zap.Error(err),
			)
		}
	}
	if recovered != nil {
		panic(recovered)
	}
}

func (r *syncRun) observeRun(status string, result integration.SyncResult) {
	if !r.observe {
		return
	}
	r.svc.metrics.ObserveSyncRun(r.conn.Platform.String(), status, time.Since(r.started),
		result.Added, result.Updated, result.Skipped, result.Failed)
}
