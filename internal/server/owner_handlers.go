package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/anuncia/anuncia/internal/usecase"
)

type DeleteOwnerRequest struct {
	Kind string `param:"kind" validate:"required,oneof=post city category type"`
	ID   string `param:"id" validate:"required,uuid"`
}

// DeleteOwner retires every asset of the owner, then deletes the owner.
// The owner is kept when any asset could not be retired.
func (s *Server) DeleteOwner(ctx echo.Context) error {
	var req DeleteOwnerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	err := s.server.DeleteOwner(ctx.Request().Context(), usecase.OwnerKind(req.Kind), uuid.MustParse(req.ID))
	if err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(http.StatusOK, Res{Message: "owner deleted"})
}
