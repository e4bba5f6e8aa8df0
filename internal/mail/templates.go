// Package mail renders and delivers the transactional email the service
// sends: a welcome message on newsletter signup and the monthly health
// report.
package mail

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// MonthlyReport carries everything the monthly report template renders.
type MonthlyReport struct {
	UserName         string   `json:"userName"`
	Month            string   `json:"month"`
	Year             int      `json:"year"`
	Score            int      `json:"auraScore"`
	ScoreDescription string   `json:"scoreDescription"`
	TotalReceipts    int      `json:"totalReceipts"`
	HealthInsights   []string `json:"healthInsights"`
	MealSuggestions  []string `json:"mealSuggestions"`
	Warnings         []string `json:"warnings"`
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Welcome to Aura Health</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; background-color: #f8fafc;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 16px; overflow: hidden;">
    <div style="background: linear-gradient(135deg, #14967f 0%, #095d7e 100%); color: white; text-align: center; padding: 40px 20px;">
      <h1 style="margin: 0; font-size: 28px;">🌟 Welcome to Aura Health!</h1>
    </div>
    <div style="padding: 40px 30px;">
      <div style="background: linear-gradient(135deg, #e2fcd6 0%, #ccecee 100%); padding: 30px; border-radius: 16px; text-align: center;">
        <h2 style="color: #095d7e; margin: 0 0 16px 0;">Hi {{.UserName}}!</h2>
        <p style="color: #14967f; font-size: 16px; line-height: 1.6; margin: 0;">
          Thank you for subscribing to our monthly health insights newsletter!
          You'll receive personalized health recommendations, dietary insights,
          and wellness tips delivered to your inbox every month.
        </p>
      </div>
    </div>
    <div style="text-align: center; padding: 30px; background-color: #f8fafc; color: #14967f; font-size: 14px;">
      <p style="margin: 0;">© {{.Year}} Aura Health. Making every receipt a step toward better health.</p>
    </div>
  </div>
</body>
</html>`))

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Your Monthly Health Report</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; background-color: #f8fafc;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 16px; overflow: hidden;">
    <div style="background: linear-gradient(135deg, #14967f 0%, #095d7e 100%); color: white; text-align: center; padding: 40px 20px;">
      <h1 style="margin: 0; font-size: 28px;">Your {{.Month}} {{.Year}} Health Report</h1>
    </div>
    <div style="padding: 40px 30px;">
      <h2 style="color: #095d7e;">Hi {{.UserName}}!</h2>
      <div style="background: linear-gradient(135deg, #e2fcd6 0%, #ccecee 100%); padding: 30px; border-radius: 16px; text-align: center;">
        <p style="color: #095d7e; font-size: 48px; font-weight: bold; margin: 0;">{{.Score}}</p>
        <p style="color: #14967f; margin: 8px 0 0 0;">{{.ScoreDescription}}</p>
        <p style="color: #14967f; margin: 8px 0 0 0;">Based on {{.TotalReceipts}} analyzed receipts</p>
      </div>
      {{if .HealthInsights}}
      <h3 style="color: #095d7e;">Health Insights</h3>
      <ul>{{range .HealthInsights}}<li style="color: #14967f; margin: 8px 0;">{{.}}</li>{{end}}</ul>
      {{end}}
      {{if .MealSuggestions}}
      <h3 style="color: #095d7e;">Meal Suggestions</h3>
      <ul>{{range .MealSuggestions}}<li style="color: #14967f; margin: 8px 0;">{{.}}</li>{{end}}</ul>
      {{end}}
      {{if .Warnings}}
      <h3 style="color: #b45309;">Things to Watch</h3>
      <ul>{{range .Warnings}}<li style="color: #b45309; margin: 8px 0;">{{.}}</li>{{end}}</ul>
      {{end}}
    </div>
    <div style="text-align: center; padding: 30px; background-color: #f8fafc; color: #14967f; font-size: 14px;">
      <p style="margin: 0;">© {{.Year}} Aura Health. Making every receipt a step toward better health.</p>
    </div>
  </div>
</body>
</html>`))

// RenderWelcome renders the newsletter welcome email for a new subscriber.
func RenderWelcome(userName string) (string, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		userName = "there"
	}

	var b strings.Builder
	err := welcomeTemplate.Execute(&b, struct {
		UserName string
		Year     int
	}{UserName: userName, Year: time.Now().Year()})
	if err != nil {
		return "", fmt.Errorf("rendering welcome email: %w", err)
	}
	return b.String(), nil
}

// RenderMonthlyReport renders the monthly health report email.
func RenderMonthlyReport(report MonthlyReport) (string, error) {
	if strings.TrimSpace(report.UserName) == "" {
		report.UserName = "there"
	}

	var b strings.Builder
	if err := reportTemplate.Execute(&b, report); err != nil {
		return "", fmt.Errorf("rendering monthly report: %w", err)
	}
	return b.String(), nil
}
