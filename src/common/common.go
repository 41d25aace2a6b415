package common

import (
	"log"
	"lrbs/src/lib"
	awslib "lrbs/src/lib/aws"
	"lrbs/src/utils"
)

func SQSConsumers() {
	dlq := awslib.NewSQSConsumer("DLQ", func(payload string) {
		log.Println("DLQ: message received")
	})
	dlq.Listen()

	go RequestTransitionsConsumer()
	go LoansDueConsumer()
	go EmailsToSendConsumer()
}

func SNSSubscribes() {
	transitions := awslib.NewSNSSubscriber("RequestTransitions")
	transitions.Subscribe("sqs", lib.GetQueueArn("RequestTransitions"))
	loansDue := awslib.NewSNSSubscriber("LoansDue")
	loansDue.Subscribe("sqs", lib.GetQueueArn("LoansDue"))
}

// KafkaConsumers wires the local-environment counterparts of the SQS
// consumers straight onto the broker topics.
func KafkaConsumers() {
	lib.KafkaConsumeTopic("lrbs", "requests-transitions", func(value []byte) {
		KafkaRequestTransitionsConsumer(string(value))
	})
	lib.KafkaConsumeTopic("lrbs", "loans-due", func(value []byte) {
		KafkaLoansDueConsumer(string(value))
	})
	lib.KafkaConsumeTopic("lrbs", utils.WithSuffix("EmailsToSend"), func(value []byte) {
		KafkaEmailsToSendConsumer(string(value))
	})
}
