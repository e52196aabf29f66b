package handlers

import (
	"strconv"

	"matchverse/middleware"
	"matchverse/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRankingRoutes(app *fiber.App, rankingService *services.RankingService, resultService *services.MatchResultService) {
	results := app.Group("/match-result", middleware.UserContextMiddleware())
	ranking := app.Group("/ranking", middleware.UserContextMiddleware())

	results.Post("/submit-winners/:matchId", func(c *fiber.Ctx) error {
		var in services.SubmitWinnersInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c, err)
		}

		summary, err := resultService.SubmitMatchWinners(c.UserContext(), c.Params("matchId"), in.Winner1ID, in.Winner2ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": summary})
	})

	ranking.Post("/update", func(c *fiber.Ctx) error {
		var req struct {
			Winner1ID string `json:"winner1_id"`
			Winner2ID string `json:"winner2_id"`
			Loser1ID  string `json:"loser1_id"`
			Loser2ID  string `json:"loser2_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c, err)
		}
		if req.Winner1ID == "" || req.Winner2ID == "" || req.Loser1ID == "" || req.Loser2ID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "winner1_id, winner2_id, loser1_id and loser2_id are required",
			})
		}

		if err := rankingService.UpdateUserRanking(c.UserContext(), req.Winner1ID, req.Winner2ID, req.Loser1ID, req.Loser2ID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Rankings updated successfully"})
	})

	// Preview of what a win or a loss is worth at a given point total.
	ranking.Get("/tier", func(c *fiber.Ctx) error {
		points, err := strconv.Atoi(c.Query("points", "0"))
		if err != nil || points < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "points must be a non-negative integer"})
		}

		tier := services.RankTierFor(points, c.Query("current", services.DefaultRankTier))
		return c.JSON(fiber.Map{
			"points":     points,
			"rank":       tier,
			"rank_code":  services.RankCode(tier),
			"win_delta":  services.CalculatePointDelta(points, true),
			"loss_delta": services.CalculatePointDelta(points, false),
		})
	})
}
