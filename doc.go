// Package sendgrid is a client for the SendGrid v2 mail.send API.
//
// A message is assembled with the Mail builder and delivered with an
// SGClient, which issues one authenticated form-encoded POST and returns
// the raw response body:
//
//	client := sendgrid.New(os.Getenv("SENDGRID_API_KEY"))
//
//	mail, err := sendgrid.NewMail(
//		sendgrid.Destination{Address: "to@example.com", Name: "Recipient"},
//		"Hello",
//		sendgrid.Destination{Address: "from@example.com", Name: "Sender"},
//	).SetText("It works").Build()
//	if err != nil {
//		// neither text nor html body was set
//	}
//
//	body, err := client.Send(ctx, mail)
//
// The client performs exactly one attempt per Send call and does not
// inspect the application-level response; see SGClient.Send.
package sendgrid
