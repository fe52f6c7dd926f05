// Package notification delivers templated notices.
//
// A NotificationManager maps notice types to templates and delivery systems
// to Notifier implementations. EmailNotifier sends over SMTP with go-mail;
// MockNotifier records sends for tests:
//
//	nm := notification.NewNotificationManager()
//	nm.RegisterNotifier(notification.EmailSystem, emailNotifier)
//	_ = nm.RegisterNotification("welcome", notification.EmailSystem, notification.NoticeTemplate{
//		Subject: "Welcome {{.FirstName}}",
//		Html:    "<p>Hello {{.FirstName}}</p>",
//	})
//	err := nm.Send(ctx, "welcome", notification.EmailSystem, notification.NotificationData{
//		To:   "ann@example.com",
//		Data: map[string]string{"FirstName": "Ann"},
//	})
package notification
