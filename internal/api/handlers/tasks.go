package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/tasks"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type TaskHandler struct {
	manager *tasks.Manager
}

func NewTaskHandler(manager *tasks.Manager) *TaskHandler {
	return &TaskHandler{manager: manager}
}

// List godoc
// @Summary List tasks
// @Description Return all known tasks, newest first, with aggregate counters.
// @Tags tasks
// @Produce json
// @Param status query string false "Filter by status" Enums(pending, running, completed, failed, cancelled)
// @Success 200 {object} models.TaskListResponse
// @Router /api/v1/tasks [get]
// @Security ApiKeyAuth
func (h *TaskHandler) List(c *gin.Context) {
	status := models.TaskStatus(c.Query("status"))

	list := h.manager.List(status)
	if list == nil {
		list = []models.Task{}
	}

	c.JSON(http.StatusOK, models.TaskListResponse{
		Total: len(list),
		Tasks: list,
		Stats: h.manager.Stats(),
	})
}

// Get godoc
// @Summary Get a task
// @Description Return the current state and progress of one task.
// @Tags tasks
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} models.Task
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/tasks/{task_id} [get]
// @Security ApiKeyAuth
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.manager.Get(c.Param("task_id"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Cancel or delete a task
// @Description Cancel the task if it is still pending or running, otherwise remove its record.
// @Tags tasks
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/tasks/{task_id} [delete]
// @Security ApiKeyAuth
func (h *TaskHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("task_id")

	task, err := h.manager.Get(id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	if task.Status.IsTerminal() {
		if err := h.manager.Delete(id); err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"task_id": id,
			"status":  "deleted",
		})
		return
	}

	if err := h.manager.Cancel(id); err != nil {
		errorResponse(c, err)
		return
	}

	utils.LogInfo(ctx, "Cancelled task", utils.Fields{"task_id": id})

	c.JSON(http.StatusOK, gin.H{
		"task_id": id,
		"status":  "cancelling",
	})
}
