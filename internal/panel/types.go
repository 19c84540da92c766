// Package panel реализует клиент application API хостинг-панели:
// аккаунты, серверы, узлы и сетевые аллокации. Клиент — тонкая обёртка
// над HTTP без ретраев; любая ошибка вызова возвращается как *RemoteError
// с человекочитаемым описанием.
package panel

import (
	"time"

	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
)

// User — аккаунт пользователя панели.
type User struct {
	ID       int    `json:"id"`
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Server — сервер панели.
type Server struct {
	ID        int                   `json:"id"`
	UUID      string                `json:"uuid"`
	Name      string                `json:"name"`
	UserID    int                   `json:"user"`
	NodeID    int                   `json:"node"`
	Suspended bool                  `json:"suspended"`
	Limits    models.ResourceLimits `json:"limits"`
	CreatedAt time.Time             `json:"created_at"`
}

// Node — вычислительный узел панели.
type Node struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	FQDN string `json:"fqdn"`
}

// Allocation — сетевая аллокация (ip:port) на узле.
type Allocation struct {
	ID       int    `json:"id"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Assigned bool   `json:"assigned"`
}

// CreateUserRequest — запрос на создание аккаунта панели.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// CreateServerRequest — запрос на создание сервера панели.
type CreateServerRequest struct {
	Name         string                `json:"name"`
	UserID       int                   `json:"user"`
	EggID        int                   `json:"egg"`
	DockerImage  string                `json:"docker_image"`
	Startup      string                `json:"startup"`
	Environment  map[string]string     `json:"environment"`
	Limits       models.ResourceLimits `json:"limits"`
	Features     models.FeatureLimits  `json:"feature_limits"`
	AllocationID int                   `json:"allocation"`
}

// CreateAllocationsRequest — запрос на создание пачки аллокаций на узле.
type CreateAllocationsRequest struct {
	IP    string   `json:"ip"`
	Ports []string `json:"ports"`
}
