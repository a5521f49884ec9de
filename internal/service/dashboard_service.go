package service

import (
	"context"
	"time"

	"medispa/internal/dto"
	"medispa/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardService aggregates the numbers behind the landing screen:
// monthly income, new patients, average ticket, return rate, today's
// appointment load and low-stock alerts. Doctors get the same numbers
// scoped to the patients they attend.
type DashboardService interface {
	Stats(ctx context.Context, scopedPatients []uuid.UUID, staffID *uuid.UUID) (*dto.DashboardStats, error)
}

type dashboardService struct {
	sales        repository.SaleRepository
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	products     repository.ProductRepository
}

func NewDashboardService(
	sales repository.SaleRepository,
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	products repository.ProductRepository,
) DashboardService {
	return &dashboardService{
		sales:        sales,
		patients:     patients,
		appointments: appointments,
		products:     products,
	}
}

func (s *dashboardService) Stats(ctx context.Context, scopedPatients []uuid.UUID, staffID *uuid.UUID) (*dto.DashboardStats, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevStart := monthStart.AddDate(0, -1, 0)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := &dto.DashboardStats{}

	// Income and ticket size, this month vs last month.
	income, count, err := s.sales.SumCompletedBetween(ctx, monthStart, now, scopedPatients)
	if err != nil {
		return nil, err
	}
	prevIncome, prevCount, err := s.sales.SumCompletedBetween(ctx, prevStart, monthStart, scopedPatients)
	if err != nil {
		return nil, err
	}
	stats.MonthlyIncome = income
	stats.MonthlyIncomeChange = percentChange(prevIncome, income)

	avg := decimal.Zero
	if count > 0 {
		avg = income.Div(decimal.NewFromInt(count)).Round(2)
	}
	prevAvg := decimal.Zero
	if prevCount > 0 {
		prevAvg = prevIncome.Div(decimal.NewFromInt(prevCount)).Round(2)
	}
	stats.AverageTicket = avg
	stats.AverageTicketChange = percentChange(prevAvg, avg)

	// New patients this month vs last.
	newPatients, err := s.patients.CountCreatedBetween(ctx, monthStart, now, scopedPatients)
	if err != nil {
		return nil, err
	}
	prevPatients, err := s.patients.CountCreatedBetween(ctx, prevStart, monthStart, scopedPatients)
	if err != nil {
		return nil, err
	}
	stats.NewPatientsMonth = newPatients
	stats.NewPatientsChange = percentChangeInt(prevPatients, newPatients)

	// Return rate: patients with two or more completed sales.
	totalPatients, returning, err := s.patients.CountWithRepeatSales(ctx, scopedPatients)
	if err != nil {
		return nil, err
	}
	if totalPatients > 0 {
		stats.ReturnRate = float64(returning) / float64(totalPatients) * 100
	}

	// Today's agenda.
	todayCount, err := s.appointments.CountOnDate(ctx, today, staffID)
	if err != nil {
		return nil, err
	}
	stats.TodayAppointments = todayCount

	upcoming, err := s.appointments.UpcomingOnDate(ctx, today, staffID, 5)
	if err != nil {
		return nil, err
	}
	stats.UpcomingAppointments = make([]dto.UpcomingAppointment, 0, len(upcoming))
	for _, a := range upcoming {
		item := dto.UpcomingAppointment{
			ID:      a.ID.String(),
			Time:    a.AppointmentTime,
			Service: a.Service,
		}
		if a.Patient != nil {
			item.PatientName = a.Patient.Name
		}
		stats.UpcomingAppointments = append(stats.UpcomingAppointments, item)
	}

	// Inventory alerts are clinic-wide regardless of scoping.
	lowStock, err := s.products.CountLowStock(ctx)
	if err != nil {
		return nil, err
	}
	stats.LowStockProducts = lowStock

	// Sales count per month for the last six months.
	stats.MonthlyPerformance = make([]dto.MonthlyPoint, 0, 6)
	for i := 5; i >= 0; i-- {
		from := monthStart.AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)
		_, n, err := s.sales.SumCompletedBetween(ctx, from, to, scopedPatients)
		if err != nil {
			return nil, err
		}
		stats.MonthlyPerformance = append(stats.MonthlyPerformance, dto.MonthlyPoint{
			Month: from.Format("2006-01"),
			Count: n,
		})
	}

	return stats, nil
}

func percentChange(prev, cur decimal.Decimal) float64 {
	if prev.IsZero() {
		if cur.IsZero() {
			return 0
		}
		return 100
	}
	diff := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
	f, _ := diff.Round(1).Float64()
	return f
}

func percentChangeInt(prev, cur int64) float64 {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return float64(cur-prev) / float64(prev) * 100
}
