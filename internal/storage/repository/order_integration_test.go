package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

func TestStorage_GenerateOrderID(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	idFormat := regexp.MustCompile(`^[0-9A-F]{8}$`)
	seen := make(map[string]bool)

	for range 20 {
		id, err := storage.GenerateOrderID(ctx)
		require.NoError(t, err)
		assert.Regexp(t, idFormat, id)
		assert.False(t, seen[id], "generated id %s twice", id)
		seen[id] = true

		// Занимаем идентификатор, чтобы проверка коллизий работала по базе.
		factory.CreateOrder(t, GetTestOrder(id))
	}
}

func TestStorage_CreateAndGetOrder(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	order := GetTestOrder("F3D2C1B0")
	factory.CreateOrder(t, order)
	verify.VerifyOrderExists(t, "F3D2C1B0")

	got, err := storage.GetOrder(ctx, "F3D2C1B0")
	require.NoError(t, err)

	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.Customer, got.Customer)
	assert.Equal(t, order.PackageID, got.PackageID)
	assert.Equal(t, order.DurationMonths, got.DurationMonths)
	assert.Equal(t, order.UnitPrice, got.UnitPrice)
	assert.Equal(t, order.TotalAmount, got.TotalAmount)
	assert.Equal(t, "IDR", got.Currency)
	assert.Equal(t, order.Spec, got.Spec)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, order.CustomerNote, got.CustomerNote)
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, models.StatusPending, got.StatusHistory[0].Status)
	assert.Equal(t, "customer", got.StatusHistory[0].Actor)
	assert.WithinDuration(t, order.CreatedAt, got.CreatedAt, time.Second)

	_, err = storage.GetOrder(ctx, "MISSING1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStorage_UpdateOrderStatus(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	order := GetTestOrder("F3D2C1B0")
	factory.CreateOrder(t, order)

	entry := models.StatusHistoryEntry{
		Status:    models.StatusConfirmed,
		Timestamp: time.Now().UTC(),
		Actor:     "admin",
		Note:      "payment received",
	}
	err := storage.UpdateOrderStatus(ctx, "F3D2C1B0", models.StatusConfirmed, entry)
	require.NoError(t, err)

	verify.VerifyOrderStatus(t, "F3D2C1B0", models.StatusConfirmed)
	verify.VerifyHistoryLength(t, "F3D2C1B0", 2)

	got, err := storage.GetOrder(ctx, "F3D2C1B0")
	require.NoError(t, err)
	last := got.StatusHistory[len(got.StatusHistory)-1]
	assert.Equal(t, got.Status, last.Status)
	assert.Equal(t, "admin", last.Actor)
	assert.Equal(t, "payment received", last.Note)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	err = storage.UpdateOrderStatus(ctx, "MISSING1", models.StatusConfirmed, entry)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStorage_UpdateOrderFields(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	order := GetTestOrder("F3D2C1B0")
	factory.CreateOrder(t, order)

	err := storage.UpdateOrderFields(ctx, "F3D2C1B0", map[string]any{
		"admin_note": "node 1 selected",
		"server_id":  "8f14e45f-ceea-4e7c-9b55-0f53c1a2b3c4",
	})
	require.NoError(t, err)

	got, err := storage.GetOrder(ctx, "F3D2C1B0")
	require.NoError(t, err)
	assert.Equal(t, "node 1 selected", got.AdminNote)
	assert.Equal(t, "8f14e45f-ceea-4e7c-9b55-0f53c1a2b3c4", got.ServerID)

	// Статус нельзя менять этим методом, только через журнал.
	err = storage.UpdateOrderFields(ctx, "F3D2C1B0", map[string]any{"status": "COMPLETED"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not updatable")

	err = storage.UpdateOrderFields(ctx, "MISSING1", map[string]any{"admin_note": "x"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	err = storage.UpdateOrderFields(ctx, "F3D2C1B0", map[string]any{})
	require.NoError(t, err)
}

func TestStorage_DeleteOrder(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)

	factory.CreateOrder(t, GetTestOrder("F3D2C1B0"))

	deleted, err := storage.DeleteOrder(ctx, "F3D2C1B0")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	verify.VerifyOrderDeleted(t, "F3D2C1B0")

	deleted, err = storage.DeleteOrder(ctx, "F3D2C1B0")
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestStorage_ListOrders(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seed := func(id, packageID, phone, name string, status models.OrderStatus, createdAt time.Time) {
		order := GetTestOrder(id)
		order.PackageID = packageID
		order.Customer.Phone = phone
		order.Customer.Name = name
		order.Status = status
		order.CreatedAt = createdAt
		order.UpdatedAt = createdAt
		factory.CreateOrder(t, order)
	}

	seed("AAAA1111", "a1", "+6281111111111", "Budi", models.StatusPending, base)
	seed("BBBB2222", "a1", "+6282222222222", "Siti", models.StatusConfirmed, base.Add(1*time.Hour))
	seed("CCCC3333", "b2", "+6283333333333", "Budiman", models.StatusCompleted, base.Add(2*time.Hour))
	seed("DDDD4444", "b2", "+6284444444444", "Agus", models.StatusCompleted, base.Add(3*time.Hour))

	t.Run("без фильтра, сортировка по убыванию даты", func(t *testing.T) {
		orders, err := storage.ListOrders(ctx, models.OrderFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 4)
		assert.Equal(t, "DDDD4444", orders[0].ID)
		assert.Equal(t, "AAAA1111", orders[3].ID)
	})

	t.Run("фильтр по статусу", func(t *testing.T) {
		status := models.StatusCompleted
		orders, err := storage.ListOrders(ctx, models.OrderFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, orders, 2)
		for _, o := range orders {
			assert.Equal(t, models.StatusCompleted, o.Status)
		}
	})

	t.Run("фильтр по пакету", func(t *testing.T) {
		orders, err := storage.ListOrders(ctx, models.OrderFilter{PackageID: "a1"})
		require.NoError(t, err)
		require.Len(t, orders, 2)
	})

	t.Run("поиск по подстроке имени или телефона", func(t *testing.T) {
		orders, err := storage.ListOrders(ctx, models.OrderFilter{Customer: "budi"})
		require.NoError(t, err)
		require.Len(t, orders, 2) // Budi и Budiman

		orders, err = storage.ListOrders(ctx, models.OrderFilter{Customer: "6284"})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "DDDD4444", orders[0].ID)
	})

	t.Run("фильтр по диапазону дат", func(t *testing.T) {
		from := base.Add(30 * time.Minute)
		to := base.Add(150 * time.Minute)
		orders, err := storage.ListOrders(ctx, models.OrderFilter{From: &from, To: &to})
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "CCCC3333", orders[0].ID)
		assert.Equal(t, "BBBB2222", orders[1].ID)
	})

	t.Run("пагинация", func(t *testing.T) {
		orders, err := storage.ListOrders(ctx, models.OrderFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "CCCC3333", orders[0].ID)
		assert.Equal(t, "BBBB2222", orders[1].ID)
	})

	t.Run("подсчёт не зависит от пагинации", func(t *testing.T) {
		count, err := storage.CountOrders(ctx, models.OrderFilter{Limit: 1, Offset: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		status := models.StatusCompleted
		count, err = storage.CountOrders(ctx, models.OrderFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestStorage_Backup(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateOrder(t, GetTestOrder("F3D2C1B0"))

	name, err := storage.Backup(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^orders_backup_\d{14}$`, name)

	var count int
	err = storage.DB.QueryRow("SELECT COUNT(*) FROM " + name).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStorage_OrderStats(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	seed := func(id string, status models.OrderStatus, total int64) {
		order := GetTestOrder(id)
		order.Status = status
		order.TotalAmount = total
		factory.CreateOrder(t, order)
	}

	seed("AAAA1111", models.StatusPending, 150000)
	seed("BBBB2222", models.StatusCompleted, 300000)
	seed("CCCC3333", models.StatusCompleted, 450000)
	seed("DDDD4444", models.StatusCancelled, 150000)

	stats, err := storage.OrderStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.StatusPending])
	assert.Equal(t, 2, stats.ByStatus[models.StatusCompleted])
	assert.Equal(t, 1, stats.ByStatus[models.StatusCancelled])
	assert.Equal(t, int64(750000), stats.CompletedRevenue)
}
