package models

import (
	"encoding/json"
	"log"
	"lrbs/src/db"
	"lrbs/src/lib"
	"lrbs/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	Name          string      `json:"-"`
	JobType       string      `json:"-"`
	RunsAt        time.Time   `json:"-"`
	HandlerParams []any       `gorm:"type:jsonb" json:"-"`
	PayloadID     string      `json:"-"`
	Payload       types.JSONB `gorm:"type:jsonb" json:"-"`
	Source        string      `json:"-"`
	SourceType    string      `json:"-"`
	Status        string      `gorm:"default:'pending'" json:"-"`
	Topic         string      `json:"-"`
}

// CreateAndEnqueueJobTask persists the task and registers a one-time
// schedule for it (EventBridge in production, gocron locally).
func (self *JobTask) CreateAndEnqueueJobTask(jobTask JobTask) (string, error) {
	var jobID string
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		requestId := jobTask.HandlerParams[0]
		pBytes, err := json.Marshal(jobTask.Payload)
		if err != nil {
			log.Printf("Failed to marshal payload: %s\n", err.Error())
			return err
		}
		sPayload := string(pBytes)
		sid, err := lib.NewScheduledJob(jobTask.RunsAt, map[string]string{
			"name":     jobTask.Name,
			"topic":    jobTask.Topic,
			"clientId": jobTask.Name,
		}, jobTask.Payload)
		if err != nil {
			log.Printf("Error creating job for Request: id=%v error=%s\n", requestId, err.Error())
			return err
		}
		_ = sPayload
		jobID = sid.String()
		jobTask.ID = *sid
		jobTask.Payload["JobID"] = jobID
		err = tx.Create(&jobTask).Error
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Printf("Created schedule for job %s with name %s at %s\n", jobID, jobTask.Name, jobTask.RunsAt.Format(time.RFC3339))
	return jobID, nil
}
