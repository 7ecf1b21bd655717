package dao

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("dockertest.NewPool: %v", err)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Fatalf("could not reach docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=felicity",
			"POSTGRES_PASSWORD=felicity",
			"POSTGRES_DB=felicity_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres: %v", err)
	}
	_ = resource.Expire(180)

	dsn := fmt.Sprintf("host=localhost port=%s user=felicity password=felicity dbname=felicity_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	pool.MaxWait = 90 * time.Second
	if err = pool.Retry(func() error {
		db, openErr := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if openErr != nil {
			return openErr
		}
		testDB = db

		sqlDB, pingErr := db.DB()
		if pingErr != nil {
			return pingErr
		}
		return sqlDB.Ping()
	}); err != nil {
		log.Fatalf("could not connect to postgres: %v", err)
	}

	if err = InitTables(testDB); err != nil {
		log.Fatalf("InitTables: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Printf("could not purge postgres: %v", err)
	}

	os.Exit(code)
}

func requireDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping dockertest-backed tests in short mode")
	}

	return testDB
}

func seedEvent(t *testing.T, db *gorm.DB, limit int, items []MerchandiseItem) Event {
	t.Helper()
	now := time.Now()

	event := Event{
		OrganizerID:          1,
		Name:                 "Load Test Event",
		Type:                 "NORMAL",
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationLimit:    limit,
		Status:               "PUBLISHED",
		Items:                items,
	}
	require.NoError(t, db.Create(&event).Error)

	return event
}

func TestRegistrationDAO_InsertGuarded_Duplicate(t *testing.T) {
	db := requireDB(t)
	d := NewRegistrationDAO(db)
	event := seedEvent(t, db, 10, nil)

	ctx := context.Background()
	registration := Registration{EventID: event.ID, ParticipantID: 501, Status: "REGISTERED"}

	first, err := d.InsertGuarded(ctx, registration, event.RegistrationLimit)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	_, err = d.InsertGuarded(ctx, registration, event.RegistrationLimit)
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegistrationDAO_InsertGuarded_Capacity(t *testing.T) {
	db := requireDB(t)
	d := NewRegistrationDAO(db)
	event := seedEvent(t, db, 2, nil)

	ctx := context.Background()
	for participant := uint(601); participant <= 602; participant++ {
		_, err := d.InsertGuarded(ctx, Registration{
			EventID:       event.ID,
			ParticipantID: participant,
			Status:        "REGISTERED",
		}, event.RegistrationLimit)
		require.NoError(t, err)
	}

	_, err := d.InsertGuarded(ctx, Registration{
		EventID:       event.ID,
		ParticipantID: 603,
		Status:        "REGISTERED",
	}, event.RegistrationLimit)
	assert.ErrorIs(t, err, ErrCapacityExhausted)
}

// Hammer one seat with concurrent attempts; exactly one may win.
func TestRegistrationDAO_InsertGuarded_Concurrent(t *testing.T) {
	db := requireDB(t)
	d := NewRegistrationDAO(db)
	event := seedEvent(t, db, 1, nil)

	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = d.InsertGuarded(context.Background(), Registration{
				EventID:       event.ID,
				ParticipantID: uint(701 + i),
				Status:        "REGISTERED",
			}, event.RegistrationLimit)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrCapacityExhausted)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestOrderDAO_Approve_DecrementsStock(t *testing.T) {
	db := requireDB(t)
	d := NewOrderDAO(db)
	event := seedEvent(t, db, 50, []MerchandiseItem{
		{SKU: "tee-m", Name: "Tee M", Price: 499, Stock: 3, PurchaseLimit: 5},
	})

	ctx := context.Background()
	order := MerchandiseOrder{
		EventID:       event.ID,
		ParticipantID: 801,
		ItemSKU:       "tee-m",
		Quantity:      2,
		Amount:        998,
		Status:        "PENDING_APPROVAL",
	}
	require.NoError(t, db.Create(&order).Error)

	order.Status = "APPROVED"
	approved, ticket, err := d.Approve(ctx, order, Ticket{
		TicketID:      "FEL-TESTAPPR01",
		EventID:       event.ID,
		ParticipantID: 801,
		OrderID:       &order.ID,
		Status:        "ACTIVE",
	})
	require.NoError(t, err)
	assert.NotZero(t, ticket.ID)
	require.NotNil(t, approved.TicketID)
	assert.Equal(t, ticket.ID, *approved.TicketID)

	var item MerchandiseItem
	require.NoError(t, db.Where("event_id = ? AND sku = ?", event.ID, "tee-m").First(&item).Error)
	assert.Equal(t, 1, item.Stock)
}

func TestOrderDAO_Approve_StockConflict(t *testing.T) {
	db := requireDB(t)
	d := NewOrderDAO(db)
	event := seedEvent(t, db, 50, []MerchandiseItem{
		{SKU: "tee-s", Name: "Tee S", Price: 499, Stock: 1, PurchaseLimit: 5},
	})

	ctx := context.Background()
	order := MerchandiseOrder{
		EventID:       event.ID,
		ParticipantID: 802,
		ItemSKU:       "tee-s",
		Quantity:      2,
		Amount:        998,
		Status:        "APPROVED",
	}
	require.NoError(t, db.Create(&order).Error)

	_, _, err := d.Approve(ctx, order, Ticket{
		TicketID:      "FEL-TESTAPPR02",
		EventID:       event.ID,
		ParticipantID: 802,
		Status:        "ACTIVE",
	})
	assert.ErrorIs(t, err, ErrStockConflict)

	// Stock untouched and no ticket issued.
	var item MerchandiseItem
	require.NoError(t, db.Where("event_id = ? AND sku = ?", event.ID, "tee-s").First(&item).Error)
	assert.Equal(t, 1, item.Stock)

	var count int64
	require.NoError(t, db.Model(&Ticket{}).Where("ticket_id = ?", "FEL-TESTAPPR02").Count(&count).Error)
	assert.Zero(t, count)
}

func TestUserDAO_Insert_DuplicateEmail(t *testing.T) {
	db := requireDB(t)
	d := NewUserDAO(db)

	ctx := context.Background()
	user := User{Email: "dup@example.com", Password: "x", Role: "participant"}

	_, err := d.Insert(ctx, user)
	require.NoError(t, err)

	_, err = d.Insert(ctx, user)
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestEventDAO_Insert_PersistsItems(t *testing.T) {
	db := requireDB(t)
	d := NewEventDAO(db)

	ctx := context.Background()
	now := time.Now()

	created, err := d.Insert(ctx, Event{
		OrganizerID:          1,
		Name:                 "Merch Drop",
		Type:                 "MERCHANDISE",
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationLimit:    100,
		Status:               "PUBLISHED",
		Items: []MerchandiseItem{
			{SKU: "hoodie-l", Name: "Fest Hoodie", Price: 999, Stock: 4, PurchaseLimit: 1},
		},
	})
	require.NoError(t, err)

	found, err := d.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, created.ID, found.Items[0].EventID)

	item, err := d.FindItem(ctx, created.ID, "hoodie-l")
	require.NoError(t, err)
	assert.Equal(t, 4, item.Stock)
}
