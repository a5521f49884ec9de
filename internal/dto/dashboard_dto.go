package dto

import "github.com/shopspring/decimal"

type UpcomingAppointment struct {
	ID          string `json:"id"`
	PatientName string `json:"patient_name"`
	Time        string `json:"time"`
	Service     string `json:"service"`
}

type MonthlyPoint struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// DashboardStats is the payload of GET /v1/dashboard/stats. Change fields
// are percentage deltas against the previous month.
type DashboardStats struct {
	MonthlyIncome        decimal.Decimal       `json:"monthly_income"`
	MonthlyIncomeChange  float64               `json:"monthly_income_change"`
	NewPatientsMonth     int64                 `json:"new_patients_month"`
	NewPatientsChange    float64               `json:"new_patients_change"`
	AverageTicket        decimal.Decimal       `json:"average_ticket"`
	AverageTicketChange  float64               `json:"average_ticket_change"`
	ReturnRate           float64               `json:"return_rate"`
	TodayAppointments    int64                 `json:"today_appointments"`
	LowStockProducts     int64                 `json:"low_stock_products"`
	UpcomingAppointments []UpcomingAppointment `json:"upcoming_appointments"`
	MonthlyPerformance   []MonthlyPoint        `json:"monthly_performance"`
}
