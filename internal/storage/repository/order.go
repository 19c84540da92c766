package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

const orderColumns = `id, customer_phone, customer_name, customer_chat_id, package_id,
		duration_months, unit_price, total_amount, currency, spec, status, status_history,
		customer_note, admin_note, payment_proof, server_id, created_at, updated_at`

// GenerateOrderID возвращает новый идентификатор заказа: 8 символов
// верхнего регистра, производных от UUID, с проверкой на коллизию
// в хранилище.
func (s *Storage) GenerateOrderID(ctx context.Context) (string, error) {
	const op = "storage.GenerateOrderID"
	for range 5 {
		raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
		id := raw[:8]
		exists, err := s.OrderExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("%s: could not generate unique order id", op)
}

// OrderExists сообщает, существует ли заказ с данным идентификатором.
func (s *Storage) OrderExists(ctx context.Context, id string) (bool, error) {
	const op = "storage.OrderExists"
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateOrder вставляет новый заказ вместе со снапшотом пакета
// и начальным журналом статусов.
func (s *Storage) CreateOrder(ctx context.Context, order *models.Order) error {
	const op = "storage.CreateOrder"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	spec, err := json.Marshal(order.Spec)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	history, err := json.Marshal(order.StatusHistory)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO orders (id, customer_phone, customer_name, customer_chat_id, package_id,
				duration_months, unit_price, total_amount, currency, spec, status, status_history,
				customer_note, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = s.DB.ExecContext(ctx, query,
		order.ID, order.Customer.Phone, order.Customer.Name, order.Customer.ChatID, order.PackageID,
		order.DurationMonths, order.UnitPrice, order.TotalAmount, order.Currency, spec, order.Status,
		history, order.CustomerNote, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOrder возвращает заказ по идентификатору.
// Для отсутствующего заказа возвращается apperrors.ErrNotFound.
func (s *Storage) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	const op = "storage.GetOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// Колонки заказов, которые разрешено менять через UpdateOrderFields.
var updatableColumns = map[string]bool{
	"customer_note": true,
	"admin_note":    true,
	"payment_proof": true,
	"server_id":     true,
}

// UpdateOrderFields обновляет разрешённые поля заказа.
// Неизвестные поля отклоняются до обращения к базе.
func (s *Storage) UpdateOrderFields(ctx context.Context, id string, fields map[string]any) error {
	const op = "storage.UpdateOrderFields"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if len(fields) == 0 {
		return nil
	}

	setParts := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	i := 1
	for column, value := range fields {
		if !updatableColumns[column] {
			return fmt.Errorf("%s: column %s is not updatable", op, column)
		}
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, i))
		args = append(args, value)
		i++
	}
	setParts = append(setParts, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(setParts, ", "), i)
	result, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateOrderStatus меняет статус заказа и дописывает запись журнала
// одним UPDATE, сохраняя инвариант append-only журнала.
func (s *Storage) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, entry models.StatusHistoryEntry) error {
	const op = "storage.UpdateOrderStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE orders
			  SET status = $1, status_history = status_history || $2::jsonb, updated_at = now()
			  WHERE id = $3`
	result, err := s.DB.ExecContext(ctx, query, status, entryJSON, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteOrder удаляет заказ и возвращает количество удалённых строк.
func (s *Storage) DeleteOrder(ctx context.Context, id string) (int, error) {
	const op = "storage.DeleteOrder"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// filterClause собирает условие WHERE по фильтру и возвращает его вместе
// с аргументами и номером следующего плейсхолдера.
func filterClause(filter models.OrderFilter) (string, []any, int) {
	var conditions []string
	var args []any
	i := 1
	addCondition := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, i))
		args = append(args, value)
		i++
	}

	if filter.Status != nil {
		addCondition("status = $%d", *filter.Status)
	}
	if filter.PackageID != "" {
		addCondition("package_id = $%d", filter.PackageID)
	}
	if filter.Customer != "" {
		addCondition("(customer_phone ILIKE $%d OR customer_name ILIKE $%[1]d)", "%"+filter.Customer+"%")
	}
	if filter.From != nil {
		addCondition("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("created_at <= $%d", *filter.To)
	}

	if len(conditions) == 0 {
		return "", args, i
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, i
}

// ListOrders возвращает заказы по фильтру с пагинацией,
// отсортированные по дате создания по убыванию.
func (s *Storage) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	const op = "storage.ListOrders"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where, args, i := filterClause(filter)
	query := `SELECT ` + orderColumns + ` FROM orders` + where
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", i)
		args = append(args, filter.Limit)
		i++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", i)
		args = append(args, filter.Offset)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountOrders возвращает количество заказов, подходящих под фильтр,
// без учёта пагинации.
func (s *Storage) CountOrders(ctx context.Context, filter models.OrderFilter) (int, error) {
	const op = "storage.CountOrders"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where, args, _ := filterClause(filter)
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// OrderStats возвращает агрегированную статистику: количество заказов
// по статусам и суммарную выручку завершённых заказов.
func (s *Storage) OrderStats(ctx context.Context) (*models.OrderStats, error) {
	const op = "storage.OrderStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	stats := &models.OrderStats{ByStatus: make(map[models.OrderStatus]int)}
	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = $1`,
		models.StatusCompleted).Scan(&stats.CompletedRevenue)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// Backup создает копию таблицы заказов с меткой времени в имени
// и возвращает имя созданной таблицы.
func (s *Storage) Backup(ctx context.Context) (string, error) {
	const op = "storage.Backup"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	name := "orders_backup_" + time.Now().UTC().Format("20060102150405")
	_, err := s.DB.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s AS TABLE orders", name))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return name, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var name, chatID, customerNote, adminNote, paymentProof, serverID sql.NullString
	var spec, history []byte

	err := row.Scan(&order.ID, &order.Customer.Phone, &name, &chatID, &order.PackageID,
		&order.DurationMonths, &order.UnitPrice, &order.TotalAmount, &order.Currency, &spec,
		&order.Status, &history, &customerNote, &adminNote, &paymentProof, &serverID,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	order.Customer.Name = name.String
	order.Customer.ChatID = chatID.String
	order.CustomerNote = customerNote.String
	order.AdminNote = adminNote.String
	order.PaymentProof = paymentProof.String
	order.ServerID = serverID.String

	if len(spec) > 0 {
		if err := json.Unmarshal(spec, &order.Spec); err != nil {
			return nil, err
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &order.StatusHistory); err != nil {
			return nil, err
		}
	}
	return &order, nil
}
