package billing

import (
	"fmt"
	"strings"
)

// planName capitalises a plan id for display
func planName(plan string) string {
	if plan == "" {
		return "Free"
	}
	return strings.ToUpper(plan[:1]) + plan[1:]
}

// buildSubscriptionActivatedEmail returns the email content for a newly activated subscription.
func buildSubscriptionActivatedEmail(userName, plan, baseURL string) (subject, html, plainText string) {
	subject = fmt.Sprintf("Your JobScout %s plan is active", planName(plan))

	html = fmt.Sprintf(`
		<html>
		<body>
			<h2>Subscription Activated!</h2>
			<p>Hi %s,</p>
			<p>Your <strong>%s</strong> plan is now active. Here's what you get:</p>
			<ul>
				<li>Unlimited AI-generated resume content</li>
				<li>Advanced resume tailoring</li>
				<li>Priority support</li>
			</ul>
			<p><a href="%s/dashboard" style="background-color: #4CAF50; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Go to Dashboard</a></p>
			<p>Thanks,<br>The JobScout Team</p>
		</body>
		</html>
	`, userName, planName(plan), baseURL)

	plainText = fmt.Sprintf(`Hi %s,

Your %s plan is now active. Here's what you get:

- Unlimited AI-generated resume content
- Advanced resume tailoring
- Priority support

Visit your dashboard: %s/dashboard

Thanks,
The JobScout Team
`, userName, planName(plan), baseURL)

	return
}

// buildSubscriptionCanceledEmail returns the email content for a canceled subscription.
func buildSubscriptionCanceledEmail(userName string, freeLimit int, baseURL string) (subject, html, plainText string) {
	subject = "Your JobScout subscription has been canceled"

	html = fmt.Sprintf(`
		<html>
		<body>
			<h2>Subscription Canceled</h2>
			<p>Hi %s,</p>
			<p>Your paid subscription has ended and your account is back on the Free plan.</p>
			<p>You can still generate <strong>%d</strong> tailored resumes every month, and all of your previous results are kept.</p>
			<p><a href="%s/pricing" style="background-color: #2196F3; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">See Plans</a></p>
			<p>Thanks,<br>The JobScout Team</p>
		</body>
		</html>
	`, userName, freeLimit, baseURL)

	plainText = fmt.Sprintf(`Hi %s,

Your paid subscription has ended and your account is back on the Free plan.

You can still generate %d tailored resumes every month, and all of your previous results are kept.

See plans: %s/pricing

Thanks,
The JobScout Team
`, userName, freeLimit, baseURL)

	return
}

// buildPaymentFailedEmail returns the email content when a payment fails.
func buildPaymentFailedEmail(userName, baseURL string) (subject, html, plainText string) {
	subject = "Action required: Your JobScout payment failed"

	html = fmt.Sprintf(`
		<html>
		<body>
			<h2>Payment Failed</h2>
			<p>Hi %s,</p>
			<p>We were unable to process your latest payment for your JobScout subscription.</p>
			<p>Please update your payment method to avoid losing unlimited prompts:</p>
			<p><a href="%s/dashboard" style="background-color: #E74C3C; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Update Payment Method</a></p>
			<p>Thanks,<br>The JobScout Team</p>
		</body>
		</html>
	`, userName, baseURL)

	plainText = fmt.Sprintf(`Hi %s,

We were unable to process your latest payment for your JobScout subscription.

Please update your payment method to avoid losing unlimited prompts:
%s/dashboard

Thanks,
The JobScout Team
`, userName, baseURL)

	return
}
