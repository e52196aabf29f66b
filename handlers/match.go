package handlers

import (
	"matchverse/middleware"
	"matchverse/models"
	"matchverse/services"

	"github.com/gofiber/fiber/v2"
)

type MatchHandler struct {
	Matches *services.MatchService
}

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService) {
	h := &MatchHandler{Matches: matchService}

	secured := app.Group("/match", middleware.UserContextMiddleware())

	secured.Post("/request", h.CreateRequest)
	secured.Post("/join", h.Join)
	secured.Post("/join-singles", h.JoinSingles)
	secured.Get("/pending", h.ListPending)
	secured.Get("/matched", h.ListMatched)
	secured.Get("/available-singles", h.availableHandler(models.MatchTypeSingle))
	secured.Get("/available-doubles", h.availableHandler(models.MatchTypeDouble))
	secured.Get("/my/pending-confirmation", h.MyPendingConfirmation)
	secured.Get("/my/scheduled", h.MyScheduled)
	secured.Post("/:id/accept", h.Accept)
	secured.Get("/:id/users", h.MatchedUsers)
}

// CreateRequest handles POST /match/request. The creator is the calling user.
func (h *MatchHandler) CreateRequest(c *fiber.Ctx) error {
	var in services.CreateMatchRequestInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	in.CreatedByID = middleware.UserID(c)

	req, err := h.Matches.CreateMatchRequest(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

func (h *MatchHandler) Join(c *fiber.Ctx) error {
	var in services.JoinMatchInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	in.UserID = middleware.UserID(c)

	req, err := h.Matches.JoinMatch(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

func (h *MatchHandler) JoinSingles(c *fiber.Ctx) error {
	var in services.JoinMatchInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	in.UserID = middleware.UserID(c)

	req, err := h.Matches.JoinSingles(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

func (h *MatchHandler) Accept(c *fiber.Ctx) error {
	var body struct {
		Accepted *bool `json:"accepted"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c, err)
	}
	if body.Accepted == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "accepted is required"})
	}

	res, err := h.Matches.AcceptMatch(c.UserContext(), c.Params("id"), middleware.UserID(c), *body.Accepted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *MatchHandler) ListPending(c *fiber.Ctx) error {
	reqs, err := h.Matches.ListPending(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}

func (h *MatchHandler) ListMatched(c *fiber.Ctx) error {
	reqs, err := h.Matches.ListMatched(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}

func (h *MatchHandler) MyPendingConfirmation(c *fiber.Ctx) error {
	reqs, err := h.Matches.ListPendingConfirmationForUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}

func (h *MatchHandler) MyScheduled(c *fiber.Ctx) error {
	reqs, err := h.Matches.ListScheduledForUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}

func (h *MatchHandler) availableHandler(matchType models.MatchType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqs, err := h.Matches.ListAvailable(c.UserContext(), middleware.UserID(c), matchType)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(reqs)
	}
}

func (h *MatchHandler) MatchedUsers(c *fiber.Ctx) error {
	users, err := h.Matches.GetMatchedUsers(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
