package mongodb

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/resellhub/listing-service/internal/listing/domain"
	platformLogger "github.com/resellhub/listing-service/internal/platform/logger"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	testDBClient *mongo.Client
	testDB       *mongo.Database
	testLogger   *platformLogger.Logger
)

const testDatabaseName = "test_listings_db"

// TestMain spins up a throwaway MongoDB container. Without a Docker daemon
// the integration tests are skipped rather than failed.
func TestMain(m *testing.M) {
	testLogger = platformLogger.NewLogger()

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("Skipping MongoDB integration tests: could not construct docker pool: %s", err)
		os.Exit(0)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Printf("Skipping MongoDB integration tests: docker unavailable: %s", err)
		os.Exit(0)
	}

	mongoResource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "5.0",
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=root",
			"MONGO_INITDB_ROOT_PASSWORD=password",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	mongoURI := fmt.Sprintf("mongodb://root:password@%s/%s?authSource=admin", mongoResource.GetHostPort("27017/tcp"), testDatabaseName)

	if err := pool.Retry(func() error {
		var errRetry error
		testDBClient, errRetry = mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
		if errRetry != nil {
			return errRetry
		}
		return testDBClient.Ping(context.Background(), nil)
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}
	testDB = testDBClient.Database(testDatabaseName)

	code := m.Run()

	if err := pool.Purge(mongoResource); err != nil {
		log.Fatalf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func newTestRepository(t *testing.T) *ListingRepository {
	t.Helper()
	clearCollections(t)
	repo, err := NewListingRepository(testDB, testLogger)
	require.NoError(t, err)
	return repo
}

func clearCollections(t *testing.T) {
	t.Helper()
	_, err := testDB.Collection(listingCollectionName).DeleteMany(context.Background(), bson.M{})
	require.NoError(t, err, "Failed to clear listings collection")
	_, err = testDB.Collection(counterCollectionName).DeleteMany(context.Background(), bson.M{})
	require.NoError(t, err, "Failed to clear counters collection")
}

func newStoredListing(t *testing.T, repo *ListingRepository, seller string) *domain.Listing {
	t.Helper()
	ctx := context.Background()

	listing, err := domain.NewListing(
		"Yeezy Boost 350", "Worn once", domain.CategorySneakers,
		300, []string{"https://cdn.example.com/yeezy.jpg"}, seller, domain.SaleTypeResell,
	)
	require.NoError(t, err)

	id, err := repo.NextListingID(ctx)
	require.NoError(t, err)
	listing.ListingID = id

	require.NoError(t, repo.Insert(ctx, listing))
	return listing
}

func TestNextListingID_Sequential(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.NextListingID(ctx)
	require.NoError(t, err)
	second, err := repo.NextListingID(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestNextListingID_ConcurrentAllocationsAreUnique(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const workers = 32
	ids := make(chan int64, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.NextListingID(ctx)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, workers)
	for id := range ids {
		assert.False(t, seen[id], "listing id %d allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestNextListingID_SeededFromExistingData(t *testing.T) {
	clearCollections(t)
	ctx := context.Background()

	// Pre-existing data set written before the allocator existed.
	_, err := testDB.Collection(listingCollectionName).InsertMany(ctx, []interface{}{
		bson.M{"listingId": int64(3), "productName": "old", "purchaseHistory": bson.A{}},
		bson.M{"listingId": int64(17), "productName": "older", "purchaseHistory": bson.A{}},
	})
	require.NoError(t, err)

	repo, err := NewListingRepository(testDB, testLogger)
	require.NoError(t, err)

	id, err := repo.NextListingID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(18), id, "allocator must continue above the existing maximum")
}

func TestInsertAndFindByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := newStoredListing(t, repo, "0xSeller")

	fetched, err := repo.FindByID(ctx, created.ListingID)
	require.NoError(t, err)
	assert.Equal(t, created.ListingID, fetched.ListingID)
	assert.Equal(t, "Yeezy Boost 350", fetched.ProductName)
	assert.Equal(t, domain.StatusPending, fetched.Status)
	assert.NotNil(t, fetched.PurchaseHistory)
	assert.Empty(t, fetched.PurchaseHistory)
	assert.False(t, fetched.CreatedAt.IsZero())
}

func TestFindByID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByID(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	pending := newStoredListing(t, repo, "0xSeller")
	listed := newStoredListing(t, repo, "0xSeller")

	status := domain.StatusListed
	_, err := repo.ApplyUpdate(ctx, listed.ListingID, domain.UpdateCommand{Status: &status})
	require.NoError(t, err)

	active, err := repo.FindByStatus(ctx, domain.StatusListed)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, listed.ListingID, active[0].ListingID)

	stillPending, err := repo.FindByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	require.Len(t, stillPending, 1)
	assert.Equal(t, pending.ListingID, stillPending[0].ListingID)
}

func TestApplyUpdate_StatusAndPurchaseTogether(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := newStoredListing(t, repo, "0xSeller")

	status := domain.StatusListed
	cmd := domain.UpdateCommand{
		Status: &status,
		Purchase: &domain.Purchase{
			Buyer:   "0xBuyer",
			Price:   300,
			TokenID: 1001,
		},
	}
	updated, err := repo.ApplyUpdate(ctx, created.ListingID, cmd)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusListed, updated.Status)
	require.Len(t, updated.PurchaseHistory, 1)
	assert.Equal(t, "0xBuyer", updated.PurchaseHistory[0].Buyer)
	assert.Equal(t, int64(1001), updated.PurchaseHistory[0].TokenID)
	assert.False(t, updated.UpdatedAt.IsZero())
}

func TestApplyUpdate_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	status := domain.StatusListed
	_, err := repo.ApplyUpdate(context.Background(), 9999, domain.UpdateCommand{Status: &status})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByPurchaseTokenIDAndSave(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := newStoredListing(t, repo, "0xSeller")

	status := domain.StatusListed
	_, err := repo.ApplyUpdate(ctx, created.ListingID, domain.UpdateCommand{
		Status:   &status,
		Purchase: &domain.Purchase{Buyer: "0xFirstBuyer", Price: 300, TokenID: 1001},
	})
	require.NoError(t, err)

	found, err := repo.FindByPurchaseTokenID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, created.ListingID, found.ListingID)

	// Resale transfer: append and persist the full document.
	found.PurchaseHistory = append(found.PurchaseHistory, domain.Purchase{
		Buyer: "0xSecondBuyer", Price: 450, TokenID: 1001,
	})
	require.NoError(t, repo.Save(ctx, found))

	refetched, err := repo.FindByID(ctx, created.ListingID)
	require.NoError(t, err)
	require.Len(t, refetched.PurchaseHistory, 2)
	assert.Equal(t, "0xSecondBuyer", refetched.PurchaseHistory[1].Buyer)
}

func TestFindByPurchaseTokenID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByPurchaseTokenID(context.Background(), 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByBuyer(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := newStoredListing(t, repo, "0xSeller")
	second := newStoredListing(t, repo, "0xSeller")
	newStoredListing(t, repo, "0xSeller") // never bought

	status := domain.StatusListed
	_, err := repo.ApplyUpdate(ctx, first.ListingID, domain.UpdateCommand{
		Status:   &status,
		Purchase: &domain.Purchase{Buyer: "0xCollector", Price: 300, TokenID: 1},
	})
	require.NoError(t, err)
	cancelled := domain.StatusCancelled
	_, err = repo.ApplyUpdate(ctx, second.ListingID, domain.UpdateCommand{
		Status:   &cancelled,
		Purchase: &domain.Purchase{Buyer: "0xCollector", Price: 100, TokenID: 2},
	})
	require.NoError(t, err)

	owned, err := repo.FindByBuyer(ctx, "0xCollector")
	require.NoError(t, err)
	assert.Len(t, owned, 2, "collection spans all statuses")

	none, err := repo.FindByBuyer(ctx, "0xNobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := newStoredListing(t, repo, "0xSeller")

	require.NoError(t, repo.Delete(ctx, created.ListingID))

	_, err := repo.FindByID(ctx, created.ListingID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, created.ListingID), domain.ErrNotFound)
}
