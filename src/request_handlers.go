package main

import (
	"errors"
	"log"
	"lrbs/src/db"
	"lrbs/src/models"
	"lrbs/src/types"
	"lrbs/src/utils"
	"lrbs/src/workflow"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func actingRole(ctx *gin.Context) types.Role {
	if v, ok := ctx.Get("role"); ok {
		if role, ok := v.(types.Role); ok {
			return role
		}
	}
	return ""
}

func abortWorkflowError(ctx *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	status := workflow.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("workflow error: %s\n", err.Error())
		ctx.JSON(status, gin.H{"error": "internal error"})
		return
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

func requestHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/requests", func(ctx *gin.Context) {
			var filters types.RequestsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			deptId := ctx.GetUint("dept")
			var requests []models.Request
			var err error
			if filters.Dept {
				role := actingRole(ctx)
				if role == types.ROLE_STUDENT {
					ctx.JSON(http.StatusForbidden, gin.H{"error": "reviewer roles only"})
					return
				}
				requests, err = utils.GetDeptRequests(deptId, &filters)
			} else {
				requests, err = utils.GetOwnRequests(userId, &filters)
			}
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": requests, "count": len(requests)})
		}).
		GET("/requests/actionable", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			deptId := ctx.GetUint("dept")
			requests, err := utils.GetActionableRequests(userId, actingRole(ctx), deptId)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": requests, "count": len(requests)})
		}).
		GET("/requests/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			deptId := ctx.GetUint("dept")
			conn := db.GetDb()
			var request models.Request
			err := conn.
				Model(&models.Request{}).
				Preload("Requester").
				Preload("Lab").
				Preload("Decisions").
				Preload("Decisions.Lab").
				Preload("Items").
				Preload("Items.Component").
				Preload("Extensions").
				First(&request, params.ID).Error
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
				return
			}
			if request.RequesterID != userId {
				if actingRole(ctx) == types.ROLE_STUDENT || request.DepartmentID != deptId {
					ctx.Status(http.StatusForbidden)
					return
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": request})
		}).
		POST("/requests", func(ctx *gin.Context) {
			var body types.SubmitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			request, err := workflow.Submit(userId, actingRole(ctx), &body)
			if err != nil {
				abortWorkflowError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": request})
		}).
		PUT("/requests/:id/decision", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.DecisionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			request, err := workflow.Decide(
				params.ID,
				userId,
				actingRole(ctx),
				types.DecisionOutcome(body.Outcome),
				body.Remarks,
				body.LabID,
			)
			if err != nil {
				abortWorkflowError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": request})
		}).
		DELETE("/requests/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			if err := workflow.Withdraw(params.ID, userId); err != nil {
				abortWorkflowError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/requests/:id/issue", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			request, err := workflow.MarkIssued(params.ID, userId, actingRole(ctx))
			if err != nil {
				abortWorkflowError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": request})
		}).
		PUT("/requests/:id/return", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			request, err := workflow.RequestReturn(params.ID, userId)
			if err != nil {
				abortWorkflowError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": request})
		}).
		PUT("/requests/:id/return/confirm", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			request, err := workflow.ConfirmReturn(params.ID, userId, actingRole(ctx))
			if err != nil {
				abortWorkflowError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": request})
		}).
		POST("/requests/:id/extension", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.ExtensionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			extension, err := workflow.RequestExtension(params.ID, userId, &body)
			if err != nil {
				abortWorkflowError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": extension})
		}).
		PUT("/requests/:id/extension", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.ExtensionDecisionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			extension, err := workflow.DecideExtension(
				params.ID,
				userId,
				actingRole(ctx),
				body.Outcome == string(types.OUTCOME_APPROVE),
				body.Remarks,
			)
			if err != nil {
				abortWorkflowError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": extension})
		})
	return g
}

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/admin/sweep", func(ctx *gin.Context) {
			role := actingRole(ctx)
			if role != types.ROLE_HOD && role != types.ROLE_LAB_COORDINATOR && role != types.ROLE_LAB_STAFF {
				ctx.Status(http.StatusForbidden)
				return
			}
			if !utils.RoleHasPermission(role, "sweep.run") {
				ctx.Status(http.StatusForbidden)
				return
			}
			summary, err := workflow.Sweep("manual")
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		})
	return g
}
