package scheduler

import (
	"context"
	"fmt"

	appcatalog "github.com/semdin/sellerx-backend/internal/application/catalog"
	apporders "github.com/semdin/sellerx-backend/internal/application/orders"
)

// ServiceExecutor dispatches sync jobs to the application services
type ServiceExecutor struct {
	ingest      *apporders.IngestService
	settlements *apporders.SettlementService
	products    *appcatalog.ProductService
}

// NewServiceExecutor creates an executor over the application services
func NewServiceExecutor(ingest *apporders.IngestService, settlements *apporders.SettlementService, products *appcatalog.ProductService) *ServiceExecutor {
	return &ServiceExecutor{
		ingest:      ingest,
		settlements: settlements,
		products:    products,
	}
}

// Execute runs the sync selected by the job's kind and records its summary
func (e *ServiceExecutor) Execute(ctx context.Context, job *SyncJob) error {
	switch job.Kind {
	case SyncKindOrders:
		summary, err := e.ingest.Sync(ctx, job.StoreID)
		if err != nil {
			return err
		}
		job.Complete(fmt.Sprintf("fetched=%d created=%d updated=%d skipped=%d uncosted=%d",
			summary.Fetched, summary.Created, summary.Updated, summary.Skipped, summary.Uncosted))
		return nil

	case SyncKindSettlements:
		summary, err := e.settlements.Sync(ctx, job.StoreID)
		if err != nil {
			return err
		}
		job.Complete(fmt.Sprintf("records=%d sales=%d converted=%d appended=%d duplicates=%d settled=%d",
			summary.Records, summary.SalesApplied, summary.ReturnsConverted,
			summary.ReturnsAppended, summary.Duplicates, summary.OrdersSettled))
		return nil

	case SyncKindProducts:
		summary, err := e.products.SyncCatalog(ctx, job.StoreID)
		if err != nil {
			return err
		}
		job.Complete(fmt.Sprintf("fetched=%d created=%d updated=%d",
			summary.Fetched, summary.Created, summary.Updated))
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnknownSyncKind, job.Kind)
	}
}

// Ensure ServiceExecutor implements SyncExecutor
var _ SyncExecutor = (*ServiceExecutor)(nil)
