package boot

import (
	"log"
	"lrbs/src/common"
	"lrbs/src/config"
	"lrbs/src/db"
	"lrbs/src/lib"
	"lrbs/src/models"
	"lrbs/src/types"
	"lrbs/src/workflow"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Lab{},
		&models.Component{},
		&models.LabSchedule{},
		&models.Request{},
		&models.ResourceDecision{},
		&models.RequestItem{},
		&models.ExtensionRequest{},
		&models.SweepRun{},
		&models.JobTask{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	SeedRolePermissions(db)

	return db
}

// SeedRolePermissions installs the default grants. Idempotent; existing
// rows are left untouched so deployments can customize them.
func SeedRolePermissions(db *gorm.DB) {
	grants := map[types.Role][]string{
		types.ROLE_STUDENT:         {"requests.submit"},
		types.ROLE_FACULTY:         {"requests.submit", "requests.decide"},
		types.ROLE_TNP:             {"requests.submit"},
		types.ROLE_OFFICE_STAFF:    {"requests.submit"},
		types.ROLE_LAB_STAFF:       {"requests.submit", "requests.decide", "loans.issue", "sweep.run"},
		types.ROLE_HOD:             {"requests.submit", "requests.decide", "labs.manage", "sweep.run"},
		types.ROLE_LAB_COORDINATOR: {"requests.submit", "requests.decide", "labs.manage", "sweep.run"},
	}
	for role, perms := range grants {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Role{Name: string(role)}).Error; err != nil {
			log.Printf("Error seeding role %s: %s\n", role, err.Error())
			continue
		}
		for _, perm := range perms {
			db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Permission{Name: perm})
			err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.RolePermission{
				Role:       string(role),
				Permission: perm,
			}).Error
			if err != nil {
				log.Printf("Error seeding grant %s:%s: %s\n", role, perm, err.Error())
			}
		}
	}
}

func InitBroker() {
	go RecoverDueReminders()
	go UpdateExpiredJobs()
	go lib.KafkaCreateTopics("requests-transitions", "loans-due")
	if config.API_ENV == string(types.Local) || config.API_ENV == string(types.Development) {
		common.KafkaConsumers()
		return
	}
	common.SNSSubscribes()
	common.SQSConsumers()
}

// InitScheduler starts the in-process scheduler and registers the periodic
// reconciliation sweep.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			summary, err := workflow.Sweep("scheduled")
			if err != nil {
				log.Printf("Scheduled sweep failed: %s\n", err.Error())
				return
			}
			if summary.MovedToFinalAuthority+summary.AutoApproved+summary.Rejected > 0 {
				log.Printf("Scheduled sweep: moved=%d auto=%d rejected=%d errors=%d\n",
					summary.MovedToFinalAuthority, summary.AutoApproved, summary.Rejected, len(summary.Errors))
			}
		}),
	)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	log.Printf("Job ID: %s %s\n", j.Name(), j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// RecoverDueReminders re-queues pending due-date reminders that were lost
// with the previous process, looking ahead a generous window.
func RecoverDueReminders() error {
	sched, err := lib.GetScheduler()
	if err != nil {
		return err
	}
	db := db.GetDb()
	ss := db.Session(&gorm.Session{PrepareStmt: true})
	var jobTasks []models.JobTask
	today := time.Now()
	in1m := today.Add(1 * time.Minute)
	in3months := today.Add((24 * 30 * 3) * time.Hour)
	err = ss.
		Model(&models.JobTask{}).Select("id", "payload", "topic", "name", "runs_at").
		Where(&models.JobTask{Status: "pending", JobType: "due_reminder"}).
		Where("runs_at BETWEEN ? AND ?", in1m, in3months).
		Order("runs_at asc").
		Limit(100).
		Find(&jobTasks).
		Error
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(jobTasks))
	for _, jobTask := range jobTasks {
		log.Printf("Queueing: %s\n", jobTask.ID.String())
		payload := jobTask.Payload
		topic := jobTask.Topic
		name := jobTask.Name
		jobDef := gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(jobTask.RunsAt))
		jt := gocron.NewTask(func() {
			log.Println("Running scheduled task")
			if err := lib.KafkaProduceMessage(name, topic, payload); err != nil {
				log.Printf("Error on producing message: %s\n", err.Error())
			}
		})
		job, err := sched.NewJob(jobDef, jt)
		if err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", jobTask.ID.String(), err.Error())
			continue
		}
		log.Printf("Added job to scheduler: name=%s id=%s job=%s\n", jobTask.Name, jobTask.ID.String(), job.ID().String())
	}

	return nil
}

// UpdateExpiredJobs marks reminder tasks whose run time already passed.
func UpdateExpiredJobs() {
	db := db.GetDb()
	err := db.
		Transaction(func(tx *gorm.DB) error {
			err := tx.Model(&models.JobTask{}).
				Where("status", "pending").
				Where("runs_at < ?", time.Now()).
				Update("status", "expired").Error
			if err != nil {
				return err
			}
			return nil
		})
	if err != nil {
		log.Printf("Error while processing expired jobs: %s\n", err.Error())
	}
}
