package main

import (
	"lrbs/src/config"
	"lrbs/src/db"
	"lrbs/src/models"
	"lrbs/src/types"
	"lrbs/src/utils"
	"lrbs/src/workflow"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func labHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/labs", func(ctx *gin.Context) {
			conn := db.GetDb()
			var labs []models.Lab
			q := conn.
				Model(&models.Lab{}).
				Preload("Components").
				Order("name asc")
			if dept := ctx.Query("department"); dept != "" {
				q = q.Where("department_id = ?", dept)
			}
			if err := q.Find(&labs).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": labs, "count": len(labs)})
		}).
		GET("/labs/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			conn := db.GetDb()
			var lab models.Lab
			err := conn.
				Model(&models.Lab{}).
				Preload("Components").
				Preload("Schedules").
				First(&lab, params.ID).Error
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "lab not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": lab})
		}).
		GET("/labs/:id/schedule", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var query types.LabScheduleQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			date, err := time.Parse(config.DATE_PARSE_FORMAT, query.Date)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
				return
			}
			conn := db.GetDb()
			weekday := int(date.Weekday())
			var schedules []models.LabSchedule
			err = conn.
				Model(&models.LabSchedule{}).
				Where("lab_id = ? AND weekday = ?", params.ID, weekday).
				Order("start_min asc").
				Find(&schedules).Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var bookings []models.Request
			err = conn.
				Model(&models.Request{}).
				Where("kind = ? AND lab_id = ? AND date = ?", types.REQUEST_BOOKING, params.ID, date).
				Where("status IN ?", []types.RequestStatus{
					types.REQUEST_PENDING_FACULTY,
					types.REQUEST_PENDING_RESOURCE_STAFF,
					types.REQUEST_PENDING_FINAL_AUTHORITY,
					types.REQUEST_APPROVED,
				}).
				Order("start_min asc").
				Find(&bookings).Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data": gin.H{
					"date":      query.Date,
					"weekday":   weekday,
					"schedules": schedules,
					"bookings":  bookings,
				},
			})
		}).
		POST("/labs", func(ctx *gin.Context) {
			role := actingRole(ctx)
			if role != types.ROLE_HOD && role != types.ROLE_LAB_COORDINATOR {
				ctx.Status(http.StatusForbidden)
				return
			}
			var body types.CreateLabRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			deptId := ctx.GetUint("dept")
			lab, err := utils.CreateNewLab(&body, deptId)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": lab})
		}).
		POST("/labs/:id/schedules", func(ctx *gin.Context) {
			role := actingRole(ctx)
			if role != types.ROLE_LAB_STAFF && role != types.ROLE_HOD && role != types.ROLE_LAB_COORDINATOR {
				ctx.Status(http.StatusForbidden)
				return
			}
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CreateLabScheduleBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			start, err := time.Parse(config.CLOCK_PARSE_FORMAT, body.Start)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
				return
			}
			end, err := time.Parse(config.CLOCK_PARSE_FORMAT, body.End)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
				return
			}
			startMin := start.Hour()*60 + start.Minute()
			endMin := end.Hour()*60 + end.Minute()

			conn := db.GetDb()
			var existing []models.LabSchedule
			err = conn.
				Model(&models.LabSchedule{}).
				Where("lab_id = ? AND weekday = ?", params.ID, body.Weekday).
				Find(&existing).Error
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			for _, s := range existing {
				if workflow.Overlaps(startMin, endMin, s.StartMin, s.EndMin) {
					ctx.JSON(http.StatusConflict, gin.H{"error": "overlaps an existing weekly block"})
					return
				}
			}
			schedule := models.LabSchedule{
				LabID:    params.ID,
				Weekday:  body.Weekday,
				StartMin: startMin,
				EndMin:   endMin,
				Course:   body.Course,
			}
			if err := conn.Create(&schedule).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": schedule})
		})
	return g
}
