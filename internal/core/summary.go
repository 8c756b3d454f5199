package core

// Snapshot is every entity of one user, read in a single transaction.
// Aggregations treat it as immutable.
type Snapshot struct {
	UserID        string
	Categories    []Category
	CreditCards   []CreditCard
	Bills         []CreditCardBill
	FixedExpenses []FixedExpense
	FixedIncomes  []FixedIncome
	Expenses      []Expense
	Incomes       []Income
	Investments   []Investment
}

type Period struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"monthName"`
}

func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month, MonthName: MonthName(month)}
}

type MonthlySummary struct {
	TotalIncome          Money `json:"totalIncome"`
	TotalExpenses        Money `json:"totalExpenses"`
	TotalCreditCardBills Money `json:"totalCreditCardBills"`
	TotalInvestments     Money `json:"totalInvestments"`
	TotalSpent           Money `json:"totalSpent"`
	TotalSaved           Money `json:"totalSaved"`
}

type MonthlyDetails struct {
	Incomes         []Income         `json:"incomes"`
	Expenses        []Expense        `json:"expenses"`
	CreditCardBills []CreditCardBill `json:"creditCardBills"`
	Investments     []Investment     `json:"investments"`
}

type DashboardMonthly struct {
	Period  Period         `json:"period"`
	Summary MonthlySummary `json:"summary"`
	Details MonthlyDetails `json:"details"`
}

// MonthTotals is one row of the yearly dashboard. TotalExpenses includes
// credit card bills.
type MonthTotals struct {
	Month         int    `json:"month"`
	MonthName     string `json:"monthName"`
	TotalIncome   Money  `json:"totalIncome"`
	TotalExpenses Money  `json:"totalExpenses"`
	TotalSaved    Money  `json:"totalSaved"`
}

type YearlySummary struct {
	TotalIncome            Money `json:"totalIncome"`
	TotalExpenses          Money `json:"totalExpenses"`
	TotalSaved             Money `json:"totalSaved"`
	AverageMonthlyIncome   Money `json:"averageMonthlyIncome"`
	AverageMonthlyExpenses Money `json:"averageMonthlyExpenses"`
}

type YearPeriod struct {
	Year int `json:"year"`
}

type DashboardYearly struct {
	Period      YearPeriod    `json:"period"`
	MonthlyData []MonthTotals `json:"monthlyData"`
	Summary     YearlySummary `json:"summary"`
}

type CategoryTotal struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Total        Money  `json:"total"`
}

type DashboardCategories struct {
	Expenses []CategoryTotal `json:"expenses"`
	Incomes  []CategoryTotal `json:"incomes"`
}
