package metrics

// KPI is a named scalar metric of an Engine.
type KPI struct {
	Name  string
	Value func(e *Engine) any
}

// KPIValue is an evaluated KPI.
type KPIValue struct {
	Name  string
	Value any
}

// kpis lists every scalar metric in report order. New KPIs must be added here
// to show up in Report.
var kpis = []KPI{
	{"currency", func(e *Engine) any { return e.Currency() }},
	{"currency_symbol", func(e *Engine) any { return e.CurrencySymbol() }},
	{"n_of_trades", func(e *Engine) any { return e.NTrades() }},
	{"n_trades_won", func(e *Engine) any { return e.NTradesWon() }},
	{"n_trades_loss", func(e *Engine) any { return e.NTradesLoss() }},
	{"win_rate", func(e *Engine) any { return e.WinRate() }},
	{"gross_revenue", func(e *Engine) any { return e.GrossRevenue() }},
	{"gross_loss", func(e *Engine) any { return e.GrossLoss() }},
	{"net_income", func(e *Engine) any { return e.NetIncome() }},
	{"expectancy", func(e *Engine) any { return e.Expectancy() }},
	{"avg_win", func(e *Engine) any { return e.AvgWin() }},
	{"avg_loss", func(e *Engine) any { return e.AvgLoss() }},
	{"avg_win_over_loss", func(e *Engine) any { return e.AvgWinOverLoss() }},
	{"profit_factor", func(e *Engine) any { return e.ProfitFactor() }},
	{"perfect_efficiency_income", func(e *Engine) any { return e.PerfectEfficiencyIncome() }},
	{"efficiency", func(e *Engine) any { return e.Efficiency() }},
	{"most_traded", func(e *Engine) any { return e.MostTraded() }},
	{"consecutive_wins", func(e *Engine) any { return e.ConsecutiveWins() }},
	{"consecutive_losses", func(e *Engine) any { return e.ConsecutiveLosses() }},
	{"largest_earning_trade", func(e *Engine) any { return e.LargestEarningTrade() }},
	{"largest_loss_trade", func(e *Engine) any { return e.LargestLossTrade() }},
	{"std_profit", func(e *Engine) any { return e.StdProfit() }},
	{"max_runup", func(e *Engine) any { return e.MaxRunup() }},
	{"max_drawdown", func(e *Engine) any { return e.MaxDrawdown() }},
}

// KPIs returns a copy of the KPI registry in report order.
func KPIs() []KPI {
	out := make([]KPI, len(kpis))
	copy(out, kpis)
	return out
}

// Report evaluates every registered KPI in order.
func (e *Engine) Report() []KPIValue {
	out := make([]KPIValue, 0, len(kpis))
	for _, k := range kpis {
		out = append(out, KPIValue{Name: k.Name, Value: k.Value(e)})
	}
	return out
}
