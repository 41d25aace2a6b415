package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"lrbs/src/db"
	"lrbs/src/lib"
	awslib "lrbs/src/lib/aws"
	"lrbs/src/lib/mailer"
	"lrbs/src/models"
	"lrbs/src/types"
	"lrbs/src/utils"
	"os"

	"firebase.google.com/go/v4/messaging"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

func transitionSubject(to types.RequestStatus) string {
	switch to {
	case types.REQUEST_PENDING_FACULTY:
		return "Your request was submitted"
	case types.REQUEST_PENDING_RESOURCE_STAFF:
		return "Your request is with the lab staff"
	case types.REQUEST_PENDING_FINAL_AUTHORITY:
		return "Your request awaits final sign-off"
	case types.REQUEST_APPROVED:
		return "Your request was approved"
	case types.REQUEST_REJECTED:
		return "Your request was rejected"
	case types.REQUEST_ISSUED:
		return "Your components have been issued"
	case types.REQUEST_RETURN_REQUESTED:
		return "Return requested"
	case types.REQUEST_RETURNED:
		return "Return confirmed"
	}
	return "Request update"
}

func handleRequestTransition(requestId uint, to types.RequestStatus) {
	conn := db.GetDb()
	var request models.Request
	err := conn.
		Model(&models.Request{}).
		Preload("Requester").
		Preload("Lab").
		First(&request, requestId).Error
	if err != nil {
		log.Printf("[RequestTransitions] request %d not found: %s\n", requestId, err.Error())
		return
	}

	subject := transitionSubject(to)
	body := fmt.Sprintf("Request #%d is now %s.", request.ID, to)
	if to == types.REQUEST_REJECTED && request.RejectionReason != nil {
		body = fmt.Sprintf("Request #%d was rejected: %s", request.ID, *request.RejectionReason)
	}
	go func() {
		input := &lib.SendMailInput{
			From:     os.Getenv("SMTP_FROM"),
			FromName: "Lab Resource Booking",
			To:       []string{request.Requester.Email},
			Subject:  subject,
			Body:     body,
		}
		if err := mailer.NewMailerMessage(input); err != nil {
			log.Printf("[RequestTransitions] error queueing email: %s\n", err.Error())
		}
	}()

	if request.Requester.FCMToken != nil && *request.Requester.FCMToken != "" {
		go func() {
			ctx := context.Background()
			fcm, err := lib.GetFirebaseMessaging()
			if err != nil {
				log.Printf("[FCM] could not get messaging client: %s\n", err.Error())
				return
			}
			res, err := fcm.Send(ctx, &messaging.Message{
				Token: *request.Requester.FCMToken,
				Data: map[string]string{
					"title": subject,
					"body":  body,
				},
			})
			if err != nil {
				log.Printf("[FCM] error sending notification message: %s", err.Error())
				return
			}
			log.Printf("[FCM] notification sent for request %d: %s", request.ID, res)
		}()
	}
}

func KafkaRequestTransitionsConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[RequestTransitions] Received invalid json body. Aborting")
		return
	}
	requestId := uint(gjson.Get(spayload, "RequestID").Uint())
	to := types.RequestStatus(gjson.Get(spayload, "To").String())
	handleRequestTransition(requestId, to)
}

func RequestTransitionsConsumer() {
	qname := "RequestTransitions"
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		var payload types.JSONB
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			log.Printf("Error deserializing JSON: %s\n", err.Error())
			return
		}
		message, ok := payload["Message"].(string)
		if !ok {
			log.Printf("[%s]: message envelope missing. Aborting", qname)
			return
		}
		KafkaRequestTransitionsConsumer(message)
	})
	c.Listen()
}

func handleLoanDue(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[LoansDue] Received invalid json body. Aborting")
		return
	}
	requestId := uint(gjson.Get(spayload, "RequestID").Uint())
	jobId := gjson.Get(spayload, "JobID").String()

	conn := db.GetDb()
	var request models.Request
	err := conn.
		Model(&models.Request{}).
		Preload("Requester").
		First(&request, requestId).Error
	if err != nil {
		log.Printf("[LoansDue] request %d not found: %s\n", requestId, err.Error())
		return
	}
	if request.Status == types.REQUEST_ISSUED && request.DueDate != nil {
		go func() {
			input := &lib.SendMailInput{
				From:     os.Getenv("SMTP_FROM"),
				FromName: "Lab Resource Booking",
				To:       []string{request.Requester.Email},
				Subject:  "Component loan due today",
				Body:     fmt.Sprintf("Loan request #%d is due on %s. Please return the components or request an extension.", request.ID, request.DueDate.Format("2006-01-02")),
			}
			if err := mailer.NewMailerMessage(input); err != nil {
				log.Printf("[LoansDue] error queueing email: %s\n", err.Error())
			}
		}()
	}

	if jobId != "" {
		go func() {
			err := conn.Transaction(func(tx *gorm.DB) error {
				return tx.
					Model(&models.JobTask{}).
					Where("id = ?", jobId).
					Update("status", "done").Error
			})
			if err != nil {
				log.Printf("[LoansDue] error updating job %s: %s\n", jobId, err.Error())
			}
		}()
	}
}

func KafkaLoansDueConsumer(spayload string) {
	handleLoanDue(spayload)
}

func LoansDueConsumer() {
	qname := "LoansDue"
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		var payload types.JSONB
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			log.Printf("Error deserializing JSON: %s\n", err.Error())
			return
		}
		message, ok := payload["Message"].(string)
		if !ok {
			log.Printf("[%s]: message envelope missing. Aborting", qname)
			return
		}
		handleLoanDue(message)
	})
	c.Listen()
}

func KafkaEmailsToSendConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("Received invalid json body. Aborting")
		return
	}
	from := gjson.Get(spayload, "from").String()
	fromName := gjson.Get(spayload, "from-name").String()
	subject := gjson.Get(spayload, "subject").String()
	log.Printf("from [%s] with subject: %s\n", from, subject)

	toArr := gjson.Get(spayload, "to").Array()
	to := make([]string, 0)
	for _, item := range toArr {
		to = append(to, item.String())
	}
	ccArr := gjson.Get(spayload, "cc").Array()
	cc := make([]string, 0)
	for _, item := range ccArr {
		cc = append(cc, item.String())
	}
	bccArr := gjson.Get(spayload, "bcc").Array()
	bcc := make([]string, 0)
	for _, item := range bccArr {
		bcc = append(bcc, item.String())
	}
	replyTo := gjson.Get(spayload, "reply-to").String()

	var body types.JSONB
	if err := json.Unmarshal([]byte(spayload), &body); err != nil {
		log.Printf("error deserializing json: %s\n", err.Error())
		return
	}
	go func() {
		input := &lib.SendMailInput{
			From:     from,
			FromName: fromName,
			To:       to,
			Cc:       cc,
			Bcc:      bcc,
			ReplyTo:  replyTo,
			Subject:  subject,
			Body:     gjson.Get(spayload, "body").String(),
			Html:     gjson.Get(spayload, "html").Bool(),
		}
		if err := lib.SendMail(input); err != nil {
			log.Printf("[MAILER] error sending email: %s\n", err.Error())
			return
		}
		log.Printf("[MAILER]: an email has been sent to %s\n", to)
	}()
}

func EmailsToSendConsumer() {
	qname := utils.WithSuffix("EmailsToSend")
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(spayload string) {
		KafkaEmailsToSendConsumer(spayload)
	})
	c.Listen()
}
