package email

import "strconv"

// WeeklyReport summarizes one user's week for the report email.
type WeeklyReport struct {
	Username  string
	Added     int
	Completed int
	Pending   int
	Overdue   int
}

// SendWelcomeEmail greets a newly registered user.
func (c *Client) SendWelcomeEmail(to, username string) error {
	data := map[string]string{
		"Username": username,
	}
	return c.SendEmail(to, "Welcome to Calendar Todo!", TemplateWelcome, data)
}

// SendWeeklyReportEmail sends the weekly activity summary.
func (c *Client) SendWeeklyReportEmail(to string, report WeeklyReport) error {
	data := map[string]string{
		"Username":  report.Username,
		"Added":     strconv.Itoa(report.Added),
		"Completed": strconv.Itoa(report.Completed),
		"Pending":   strconv.Itoa(report.Pending),
		"Overdue":   strconv.Itoa(report.Overdue),
	}
	return c.SendEmail(to, "Your week in review", TemplateWeeklyReport, data)
}
