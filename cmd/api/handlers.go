package main

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/task-control-service/internal/application"
	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/errors"
	"github.com/wms-platform/task-control-service/pkg/logging"
	"github.com/wms-platform/task-control-service/pkg/middleware"
)

type taskCodeURI struct {
	CodTask string `uri:"codTask" binding:"required,taskcode"`
}

// registerRoutes mounts the task API. auth authenticates the bearer token and
// must run before any handler that needs a caller.
func registerRoutes(router *gin.Engine, service *application.TaskApplicationService, auth gin.HandlerFunc, logger *logging.Logger) {
	middleware.InitValidator(domain.IsTaskCode)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	admin := middleware.RequireRole(string(domain.RoleAdmin))

	api := router.Group("/api/v1/tasks", auth)
	{
		api.POST("/assignment", admin, assignTaskHandler(service, logger))
		api.GET("/all", listTasksHandler(service, logger))
		api.GET("/:codTask", admin, getTaskHandler(service, logger))
		api.PUT("/:codTask", updateTaskHandler(service, logger))
	}
}

func assignTaskHandler(service *application.TaskApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		payload, ok := readPayload(c, responder)
		if !ok {
			return
		}

		task, err := service.AssignTask(c.Request.Context(), application.AssignTaskCommand{
			Payload: payload,
			Caller:  callerFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Assignment task successful",
			"task":    task,
		})
	}
}

func listTasksHandler(service *application.TaskApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		tasks, err := service.ListTasks(c.Request.Context(), application.ListTasksQuery{Caller: callerFrom(c)})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, tasks)
	}
}

func getTaskHandler(service *application.TaskApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		var uri taskCodeURI
		if err := c.ShouldBindUri(&uri); err != nil {
			responder.RespondWithAppError(errors.ErrInvalidRequestShape().
				WithDetail("codTask", c.Param("codTask")).
				Wrap(err))
			return
		}

		task, err := service.GetTask(c.Request.Context(), application.GetTaskQuery{
			CodTask: uri.CodTask,
			Caller:  callerFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

func updateTaskHandler(service *application.TaskApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		payload, ok := readPayload(c, responder)
		if !ok {
			return
		}

		task, err := service.UpdateTask(c.Request.Context(), application.UpdateTaskCommand{
			CodTask: c.Param("codTask"),
			Payload: payload,
			Caller:  callerFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

// readPayload decodes the body as a JSON object. The structure is checked by
// the workflows, so unknown fields survive until then.
func readPayload(c *gin.Context, responder *middleware.ErrorResponder) (domain.Payload, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		responder.RespondWithAppError(errors.ErrInvalidRequestShape().Wrap(err))
		return nil, false
	}
	payload, err := domain.DecodePayload(body)
	if err != nil {
		responder.RespondWithAppError(errors.ErrInvalidRequestShape().Wrap(err))
		return nil, false
	}
	return payload, true
}

// callerFrom turns the authenticated identity into the workflow caller
func callerFrom(c *gin.Context) domain.Caller {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		return nil
	}
	return domain.Principal{
		CodUser:     identity.CodUser,
		Name:        identity.Name,
		Role:        domain.Role(identity.Role),
		BearerToken: identity.Token,
	}
}

// userIdentityResolver resolves token subjects against the user collection
type userIdentityResolver struct {
	users domain.UserRepository
}

func newUserIdentityResolver(users domain.UserRepository) *userIdentityResolver {
	return &userIdentityResolver{users: users}
}

// ResolveIdentity returns nil for unknown users and for users whose type is
// not a known role.
func (r *userIdentityResolver) ResolveIdentity(ctx context.Context, userID string) (*middleware.Identity, error) {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	role, err := domain.ParseRole(user.Type)
	if err != nil {
		return nil, nil
	}
	return &middleware.Identity{
		UserID:  user.ID,
		CodUser: user.CodUser,
		Name:    user.Name,
		Role:    string(role),
	}, nil
}
