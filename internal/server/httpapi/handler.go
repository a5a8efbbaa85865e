package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/cashbackhub/internal/server/users"
)

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload")
	}
	missing := map[string]string{}
	if req.Email == "" {
		missing["email"] = "is required"
	}
	if req.Password == "" {
		missing["password"] = "is required"
	}
	if len(missing) > 0 {
		return &users.ValidationError{Fields: missing}
	}

	user, pair, requiresTwoFactor, err := s.users.Login(c.UserContext(), req.Email, req.Password, req.TwoFactorCode)
	if err != nil {
		return err
	}
	if requiresTwoFactor {
		return c.JSON(authResponse{RequiresTwoFactor: true})
	}
	return c.JSON(newAuthResponse(user, pair))
}

func (s *Server) register(c *fiber.Ctx) error {
	var req users.Registration
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload")
	}

	user, pair, err := s.users.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(newAuthResponse(user, pair))
}

func (s *Server) refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload")
	}

	pair, err := s.users.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(refreshResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// logout revokes the refresh token in the body. The access token is not
// checked: an expired session must still be able to sign out.
func (s *Server) logout(c *fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest("invalid payload")
		}
	}
	if err := s.users.Logout(c.UserContext(), req.RefreshToken); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) me(c *fiber.Ctx) error {
	return c.JSON(userResponse{User: toUserDTO(currentUser(c))})
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var patch users.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest("invalid payload")
	}

	user, err := s.users.UpdateProfile(c.UserContext(), currentUser(c).ID, patch)
	if err != nil {
		return err
	}
	return c.JSON(userResponse{User: toUserDTO(user)})
}

func (s *Server) resendVerification(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload")
	}
	if req.Email == "" {
		return &users.ValidationError{Fields: map[string]string{"email": "is required"}}
	}
	if err := s.users.ResendVerification(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) verifyEmail(c *fiber.Ctx) error {
	if err := s.users.VerifyEmail(c.UserContext(), c.Query("token")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"verified": true})
}

func (s *Server) resetPassword(c *fiber.Ctx) error {
	var req passwordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload")
	}
	if err := s.users.ChangePassword(c.UserContext(), currentUser(c).ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) setupTwoFactor(c *fiber.Ctx) error {
	secretKey, url, err := s.users.SetupTwoFactor(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(twoFactorSetupResponse{Secret: secretKey, OTPAuthURL: url})
}

func (s *Server) disableTwoFactor(c *fiber.Ctx) error {
	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid payload")
	}
	if err := s.users.DisableTwoFactor(c.UserContext(), currentUser(c).ID, req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	d, err := s.users.Dashboard(c.UserContext(), currentUser(c), c.Params("role"))
	if err != nil {
		return err
	}
	return c.JSON(dashboardResponse{Role: d.Role, Metrics: d.Metrics, Notices: d.Notices})
}

func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "dependency_unavailable",
				"message": "refresh token store unavailable",
				"details": fiber.Map{"refresh_store": err.Error()},
			},
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
