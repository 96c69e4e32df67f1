package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/service"
	"github.com/godilite/urbanscore/internal/state"
)

const defaultGRPCTimeout = 15 * time.Second

var unavailableMessages = map[string]string{
	"ListRankings":    state.LoadFailedMessage,
	"GetNeighborhood": "neighborhood could not be loaded; verify the data source is reachable",
	"ListBoroughs":    "boroughs could not be loaded; verify the data source is reachable",
}

type GRPCHandlers struct {
	rankings      RankingService
	neighborhoods NeighborhoodService
	catalog       CatalogService
	sessions      SessionStore
	logger        *zap.Logger
}

var _ RankingsServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(rankings RankingService, neighborhoods NeighborhoodService, catalog CatalogService,
	sessions SessionStore, logger *zap.Logger) *GRPCHandlers {
	if rankings == nil {
		panic("nil RankingService provided to NewGRPCHandlers")
	}
	if neighborhoods == nil {
		panic("nil NeighborhoodService provided to NewGRPCHandlers")
	}
	if catalog == nil {
		panic("nil CatalogService provided to NewGRPCHandlers")
	}
	if sessions == nil {
		panic("nil SessionStore provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandlers{
		rankings:      rankings,
		neighborhoods: neighborhoods,
		catalog:       catalog,
		sessions:      sessions,
		logger:        logger.Named("grpc-handler"),
	}
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, ranking.ErrUnknownProfile),
		errors.Is(err, ranking.ErrUnknownSortOrder),
		errors.Is(err, errInvalidField):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNeighborhoodNotFound):
		s.logger.Info("neighborhood not found", zap.String("op", op), zap.Error(err))
		return status.Error(codes.NotFound, "neighborhood not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return status.Error(codes.NotFound, "session not found or expired")
	case errors.Is(err, datasource.ErrDataSourceUnavailable):
		s.logger.Warn("data source unavailable", zap.String("op", op), zap.Error(err))
		msg, ok := unavailableMessages[op]
		if !ok {
			msg = "data source unavailable"
		}
		return status.Error(codes.Unavailable, msg)
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) encoded(op string, out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		s.logger.Error("failed to encode response", zap.String("op", op), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "%s: encode response: %v", op, err)
	}
	return out, nil
}

func (s *GRPCHandlers) ListRankings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sel, err := selection(req, state.Selection{Profile: ranking.ProfileAll, Order: ranking.Descending})
	if err != nil {
		return nil, s.handleError(ctx, "ListRankings", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	r, err := s.rankings.Fetch(ctx, sel.Profile, sel.Order)
	if err != nil {
		return nil, s.handleError(ctx, "ListRankings", err)
	}

	out, err := rankingStruct(r)
	return s.encoded("ListRankings", out, err)
}

func (s *GRPCHandlers) GetNeighborhood(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, ok, err := stringField(req, "id")
	if err != nil {
		return nil, s.handleError(ctx, "GetNeighborhood", err)
	}
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	sel, err := selection(req, state.Selection{Profile: ranking.ProfileAll})
	if err != nil {
		return nil, s.handleError(ctx, "GetNeighborhood", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	d, err := s.neighborhoods.Detail(ctx, id, sel.Profile)
	if err != nil {
		return nil, s.handleError(ctx, "GetNeighborhood", err)
	}

	out, err := detailStruct(d)
	return s.encoded("GetNeighborhood", out, err)
}

func (s *GRPCHandlers) ListBoroughs(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	boroughs, err := s.catalog.Boroughs(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "ListBoroughs", err)
	}

	out, err := boroughsStruct(boroughs)
	return s.encoded("ListBoroughs", out, err)
}

// OpenSession creates a view session and performs its first load. A failed load
// is reported in the returned state, not as an RPC error.
func (s *GRPCHandlers) OpenSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sel, err := selection(req, state.Selection{Profile: ranking.ProfileAll, Order: ranking.Descending})
	if err != nil {
		return nil, s.handleError(ctx, "OpenSession", err)
	}

	id, controller := s.sessions.Open(sel)

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	snap := controller.Refresh(ctx)

	out, err := sessionStruct(id, snap)
	return s.encoded("OpenSession", out, err)
}

// UpdateSession applies the requested profile and/or order, or reloads the current
// selection when refresh is set. Without any of them the state is returned unchanged.
func (s *GRPCHandlers) UpdateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, controller, err := s.session(req)
	if err != nil {
		return nil, s.handleError(ctx, "UpdateSession", err)
	}

	profile, order, err := selectionFields(req)
	if err != nil {
		return nil, s.handleError(ctx, "UpdateSession", err)
	}
	refresh, err := boolField(req, "refresh")
	if err != nil {
		return nil, s.handleError(ctx, "UpdateSession", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	var snap state.Snapshot
	switch {
	case profile != nil && order != nil:
		snap = controller.Select(ctx, state.Selection{Profile: *profile, Order: *order})
	case profile != nil:
		snap = controller.SelectProfile(ctx, *profile)
	case order != nil:
		snap = controller.SelectSortOrder(ctx, *order)
	case refresh:
		snap = controller.Refresh(ctx)
	default:
		snap = controller.State()
	}

	out, err := sessionStruct(id, snap)
	return s.encoded("UpdateSession", out, err)
}

func (s *GRPCHandlers) GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, controller, err := s.session(req)
	if err != nil {
		return nil, s.handleError(ctx, "GetSession", err)
	}

	out, err := sessionStruct(id, controller.State())
	return s.encoded("GetSession", out, err)
}

// CloseSession ends a session; later calls with its id get NotFound.
func (s *GRPCHandlers) CloseSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, ok, err := stringField(req, "session_id")
	if err != nil {
		return nil, s.handleError(ctx, "CloseSession", err)
	}
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	if err := s.sessions.Close(id); err != nil {
		return nil, s.handleError(ctx, "CloseSession", err)
	}

	out, err := structpb.NewStruct(map[string]any{"session_id": id, "closed": true})
	return s.encoded("CloseSession", out, err)
}

func (s *GRPCHandlers) session(req *structpb.Struct) (string, *service.Controller, error) {
	id, ok, err := stringField(req, "session_id")
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, fmt.Errorf("%w: session_id is required", errInvalidField)
	}
	c, err := s.sessions.Get(id)
	if err != nil {
		return "", nil, err
	}
	return id, c, nil
}
