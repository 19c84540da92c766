// Package services содержит оркестратор провижининга: многошаговое
// создание аккаунта и сервера на хостинг-панели с компенсирующим
// откатом при частичном сбое. Панель не поддерживает транзакции,
// поэтому корректность держится на дисциплине отката в обратном порядке.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/hosting-aggregator/internal/apperrors"
	"github.com/magabrotheeeer/hosting-aggregator/internal/config"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/credentials"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-aggregator/internal/models"
	"github.com/magabrotheeeer/hosting-aggregator/internal/panel"
)

// PanelClient определяет операции панели, которые нужны оркестратору.
type PanelClient interface {
	IsConfigured() bool
	Health(ctx context.Context) error
	CreateUser(ctx context.Context, req panel.CreateUserRequest) (*panel.User, error)
	DeleteUser(ctx context.Context, id int) error
	ListAllocations(ctx context.Context, nodeID int) ([]panel.Allocation, error)
	CreateAllocations(ctx context.Context, nodeID int, req panel.CreateAllocationsRequest) error
	CreateServer(ctx context.Context, req panel.CreateServerRequest) (*panel.Server, error)
	DeleteServer(ctx context.Context, id int) error
}

// ProvisionService выполняет провижининг заказа на хостинг-панели.
type ProvisionService struct {
	client PanelClient
	cfg    *config.Config
	log    *slog.Logger
}

// NewProvisionService создает новый экземпляр ProvisionService.
func NewProvisionService(client PanelClient, cfg *config.Config, log *slog.Logger) *ProvisionService {
	return &ProvisionService{
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

// rollbackAction — компенсирующее действие для уже выполненной
// удалённой мутации.
type rollbackAction struct {
	description string
	run         func(ctx context.Context) error
}

// Provision выполняет шаги провижининга строго последовательно:
// генерация учётных данных, создание аккаунта, подбор аллокации,
// создание сервера. При ошибке на любом шаге выполняются накопленные
// компенсирующие действия в обратном порядке; сбой отдельного отката
// логируется и не прерывает остальные.
func (s *ProvisionService) Provision(ctx context.Context, order *models.Order) (*models.ProvisionResult, error) {
	result := &models.ProvisionResult{}

	if !s.client.IsConfigured() {
		err := &apperrors.ConfigurationError{Msg: "hosting panel is not configured"}
		result.Error = err.Error()
		return result, err
	}
	if err := s.client.Health(ctx); err != nil {
		cfgErr := &apperrors.ConfigurationError{Msg: fmt.Sprintf("hosting panel health check failed: %v", err)}
		result.Error = cfgErr.Error()
		return result, cfgErr
	}

	var rollbacks []rollbackAction
	fail := func(err error) (*models.ProvisionResult, error) {
		result.Success = false
		result.Error = err.Error()
		s.rollback(ctx, rollbacks, result)
		return result, err
	}

	password, err := credentials.GeneratePassword()
	if err != nil {
		return fail(err)
	}
	username := credentials.Username(order.Customer.Phone, time.Now())
	email := credentials.Email(order.Customer.Phone, s.cfg.Panel.EmailDomain)

	user, err := s.client.CreateUser(ctx, panel.CreateUserRequest{
		Username:  username,
		Email:     email,
		FirstName: firstNameFor(order),
		LastName:  order.ID,
		Password:  password,
	})
	if err != nil {
		return fail(err)
	}
	result.UserID = user.ID
	rollbacks = append(rollbacks, rollbackAction{
		description: fmt.Sprintf("delete user %d", user.ID),
		run: func(ctx context.Context) error {
			return s.client.DeleteUser(ctx, user.ID)
		},
	})
	s.log.Info("panel user created", sl.Order(order.ID), slog.Int("user_id", user.ID))

	mapping := s.cfg.MappingFor(order.PackageID)
	if mapping == nil {
		return fail(&apperrors.ConfigurationError{
			Msg: fmt.Sprintf("no resource mapping for package %s", order.PackageID),
		})
	}

	allocation, err := s.findFreeAllocation(ctx, mapping.NodeID)
	if err != nil {
		return fail(err)
	}

	serverName := strings.ToUpper(order.PackageID) + "-" + order.ID
	server, err := s.client.CreateServer(ctx, panel.CreateServerRequest{
		Name:         serverName,
		UserID:       user.ID,
		EggID:        mapping.EggID,
		DockerImage:  mapping.DockerImage,
		Startup:      mapping.Startup,
		Environment:  mapping.Environment,
		Limits:       mapping.Limits,
		Features:     mapping.Features,
		AllocationID: allocation.ID,
	})
	if err != nil {
		return fail(err)
	}
	result.ServerID = server.ID
	rollbacks = append(rollbacks, rollbackAction{
		description: fmt.Sprintf("delete server %d", server.ID),
		run: func(ctx context.Context) error {
			return s.client.DeleteServer(ctx, server.ID)
		},
	})
	s.log.Info("panel server created", sl.Order(order.ID),
		slog.Int("server_id", server.ID), slog.String("server_uuid", server.UUID))

	result.Success = true
	result.Credentials = &models.Credentials{
		Username:   username,
		Password:   password,
		Email:      email,
		PanelURL:   s.cfg.Panel.BaseURL,
		ServerID:   server.ID,
		ServerUUID: server.UUID,
		ServerName: serverName,
	}
	return result, nil
}

// findFreeAllocation ищет свободную аллокацию на узле; если её нет,
// создает пачку портов из настроенного диапазона и повторяет поиск
// ровно один раз.
func (s *ProvisionService) findFreeAllocation(ctx context.Context, nodeID int) (*panel.Allocation, error) {
	allocation, err := s.lookupFree(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if allocation != nil {
		return allocation, nil
	}

	ports := make([]string, 0, s.cfg.Panel.AllocationPortTo-s.cfg.Panel.AllocationPortFrom+1)
	for p := s.cfg.Panel.AllocationPortFrom; p <= s.cfg.Panel.AllocationPortTo; p++ {
		ports = append(ports, strconv.Itoa(p))
	}
	s.log.Info("no free allocation, creating port batch",
		slog.Int("node_id", nodeID), slog.Int("count", len(ports)))

	err = s.client.CreateAllocations(ctx, nodeID, panel.CreateAllocationsRequest{
		IP:    s.cfg.Panel.AllocationIP,
		Ports: ports,
	})
	if err != nil {
		return nil, err
	}

	allocation, err = s.lookupFree(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, &apperrors.ResourceExhaustionError{NodeID: nodeID}
	}
	return allocation, nil
}

func (s *ProvisionService) lookupFree(ctx context.Context, nodeID int) (*panel.Allocation, error) {
	allocations, err := s.client.ListAllocations(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	for i := range allocations {
		if !allocations[i].Assigned {
			return &allocations[i], nil
		}
	}
	return nil, nil
}

// rollback выполняет компенсирующие действия в обратном порядке.
// Каждое действие изолировано: его сбой логируется и не маскирует
// исходную ошибку.
func (s *ProvisionService) rollback(ctx context.Context, actions []rollbackAction, result *models.ProvisionResult) {
	for i := len(actions) - 1; i >= 0; i-- {
		action := actions[i]
		result.RollbackActions = append(result.RollbackActions, action.description)
		if err := action.run(ctx); err != nil {
			s.log.Error("rollback action failed",
				slog.String("action", action.description), sl.Err(err))
			continue
		}
		s.log.Info("rollback action executed", slog.String("action", action.description))
	}
}

func firstNameFor(order *models.Order) string {
	if order.Customer.Name != "" {
		return order.Customer.Name
	}
	return "Customer"
}
