package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/workflow"
)

type ConfigController struct{}

// Public returns the enumerations a client needs to build its forms.
func (cc *ConfigController) Public(c *gin.Context) {
	workshops := make([]gin.H, 0, len(access.Workshops))
	for _, w := range access.Workshops {
		workshops = append(workshops, gin.H{
			"name":   string(w),
			"prefix": codegen.ToolPrefix(string(w)),
		})
	}
	roles := []string{string(access.RoleStudent), string(access.RoleSupervisor), string(access.RoleAdmin)}

	c.JSON(http.StatusOK, gin.H{
		"workshops":      workshops,
		"default_prefix": codegen.DefaultPrefix,
		"roles":          roles,
		"categories":     models.ToolCategories,
		"statuses":       models.ToolStatuses,
		"conditions":     models.ToolConditions,
		"priorities":     models.TaskPriorities,
		"manual_events":  []string{workflow.EventRepair, workflow.EventReportMissing, workflow.EventRecover},
	})
}
