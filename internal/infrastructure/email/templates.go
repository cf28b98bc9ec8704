package email

import (
	"bytes"
	"html/template"
)

// leadAlertTemplate is the compiled template for the high-value lead alert.
var leadAlertTemplate = template.Must(template.New("leadAlert").Parse(`
<!doctype html>
<html lang="en">
  <head>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
    <title>High-value lead</title>
  </head>
  <body style="font-family: Helvetica, sans-serif; font-size: 16px; line-height: 1.3; background-color: #f4f5f6; margin: 0; padding: 24px;">
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" width="100%" style="max-width: 560px; margin: 0 auto; background-color: #ffffff; border-radius: 8px;">
      <tr>
        <td style="padding: 24px;">
          <h2 style="margin: 0 0 16px 0;">A visitor just crossed the high-value threshold</h2>
          <table role="presentation" border="0" cellpadding="6" cellspacing="0" width="100%">
            <tr><td style="color: #6b7280;">Visitor</td><td><code>{{.VisitorID}}</code></td></tr>
            <tr><td style="color: #6b7280;">Lead score</td><td><strong>{{.Score}}</strong></td></tr>
            <tr><td style="color: #6b7280;">Engagement level</td><td>{{.EngagementLevel}}</td></tr>
            <tr><td style="color: #6b7280;">Last activity</td><td>{{.LastTrigger}}</td></tr>
            <tr><td style="color: #6b7280;">Total activities</td><td>{{.ActivityCount}}</td></tr>
          </table>
          <p style="margin: 16px 0 0 0; color: #6b7280;">
            Check the engagement dashboard for the full activity history before reaching out.
          </p>
        </td>
      </tr>
    </table>
  </body>
</html>
`))

func renderLeadAlert(alert LeadAlert) (string, error) {
	var buf bytes.Buffer
	if err := leadAlertTemplate.Execute(&buf, alert); err != nil {
		return "", err
	}
	return buf.String(), nil
}
