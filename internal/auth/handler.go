package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HomePage は GET / のハンドラーです。
func (m *Manager) HomePage(c *gin.Context) {
	m.render(c, http.StatusOK, "homepage.html", nil)
}

// LoginPage は GET /login のハンドラーです。
func (m *Manager) LoginPage(c *gin.Context) {
	m.render(c, http.StatusOK, "login.html", nil)
}

// SignupPage は GET /signup のハンドラーです。
func (m *Manager) SignupPage(c *gin.Context) {
	m.render(c, http.StatusOK, "signup.html", nil)
}

// UserPage は GET /userpage のハンドラーです。RequireLogin の後ろに置きます。
func (m *Manager) UserPage(c *gin.Context) {
	m.render(c, http.StatusOK, "userpage.html", nil)
}

func (m *Manager) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := CurrentUser(c); ok {
		data["user"] = user
	}
	data["messages"] = Messages(c)
	c.Header("Cache-Control", "no-store")
	c.HTML(status, page, data)
}

func (m *Manager) renderError(c *gin.Context, status int, page, code, message string) {
	m.render(c, status, page, gin.H{
		"code":  code,
		"error": message,
	})
}
