package repository

import (
	"context"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/shopspring/decimal"
)

type DashboardMetrics struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int             `json:"total_orders"`
	TotalUsers    int             `json:"total_users"`
	TotalProducts int             `json:"total_products"`
}

// GetDashboardMetrics aggregates headline numbers for the admin dashboard.
// Revenue only counts orders that made it past payment (PROCESSING and later,
// excluding CANCELLED).
func (r *Repository) GetDashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	var m DashboardMetrics

	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status IN ($1, $2, $3)`,
		domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered).
		Scan(&m.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("query total revenue: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM orders),
		     (SELECT COUNT(*) FROM users),
		     (SELECT COUNT(*) FROM products)`).
		Scan(&m.TotalOrders, &m.TotalUsers, &m.TotalProducts)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}

	return &m, nil
}

type MonthlySales struct {
	Month      string          `json:"month"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

func (r *Repository) GetMonthlySales(ctx context.Context) ([]MonthlySales, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT TO_CHAR(DATE_TRUNC('month', created_at), 'Mon YY') AS month, SUM(total) AS total
		 FROM orders
		 WHERE status IN ($1, $2, $3) AND created_at >= NOW() - INTERVAL '12 months'
		 GROUP BY DATE_TRUNC('month', created_at)
		 ORDER BY DATE_TRUNC('month', created_at)`,
		domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	if err != nil {
		return nil, fmt.Errorf("query monthly sales: %w", err)
	}
	defer rows.Close()

	var sales []MonthlySales
	for rows.Next() {
		var s MonthlySales
		if err := rows.Scan(&s.Month, &s.TotalSales); err != nil {
			return nil, fmt.Errorf("scan monthly sales row: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
