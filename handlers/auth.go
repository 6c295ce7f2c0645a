package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/middleware"
	"food-marketplace-api/services"
)

// Register creates a new user account
func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":                 "Registration successful",
		"token":                   res.Token,
		"user":                    res.User,
		"verification_email_sent": res.VerificationEmailSent,
	})
}

// Login authenticates and returns a token
func (h *Handler) Login(c *gin.Context) {
	var req services.LoginInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Accounts.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": res.Token, "user": res.User})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Accounts.Logout(c.Request.Context(), middleware.GetClaims(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Me returns the logged-in user's account and profiles
func (h *Handler) Me(c *gin.Context) {
	detail, err := h.Accounts.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) CheckUsername(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	free, err := h.Accounts.CheckUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": req.Username, "available": free})
}

func (h *Handler) CheckEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	free, err := h.Accounts.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": req.Email, "available": free})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordInput
	if !h.bind(c, &req) {
		return
	}
	if err := h.Accounts.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	var req services.VerifyEmailInput
	if !h.bind(c, &req) {
		return
	}
	if err := h.Accounts.VerifyEmail(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if !h.bind(c, &req) {
		return
	}
	sent, err := h.Accounts.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code issued", "email_sent": sent})
}

// UserTypes lists the roles a new account can pick
func (h *Handler) UserTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_types": h.Accounts.UserTypes()})
}
