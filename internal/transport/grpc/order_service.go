package grpctransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/phamquangkhanh2999/order-api/internal/apperr"
	"github.com/phamquangkhanh2999/order-api/internal/transport/payloads"
)

const serviceName = "orderapi.v1.OrderService"

// OrderServiceServer is the server API of orderapi.v1.OrderService. Requests carry the same
// JSON objects as the HTTP API and responses carry the success envelope.
type OrderServiceServer interface {
	CreateOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListOrders(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	UpdateOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	DeleteOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// OrderServiceDesc describes orderapi.v1.OrderService for grpc.Server.RegisterService.
var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOrder", Handler: unaryHandler("CreateOrder", OrderServiceServer.CreateOrder)},
		{MethodName: "ListOrders", Handler: unaryHandler("ListOrders", OrderServiceServer.ListOrders)},
		{MethodName: "UpdateOrder", Handler: unaryHandler("UpdateOrder", OrderServiceServer.UpdateOrder)},
		{MethodName: "DeleteOrder", Handler: unaryHandler("DeleteOrder", OrderServiceServer.DeleteOrder)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderapi/v1/order_service.proto",
}

// FullMethod returns the full gRPC method name of an OrderService method.
func FullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

type unaryCall func(OrderServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*structpb.Struct))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// OrderServer implements the gRPC OrderService.
type OrderServer struct {
	service service
}

// NewOrderServer creates a new OrderServer.
func NewOrderServer(service service) *OrderServer {
	return &OrderServer{
		service: service,
	}
}

// CreateOrder handles the create order gRPC request.
func (s *OrderServer) CreateOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	op := payloads.CreateOrder

	req := payloads.CreateOrderRequest{}
	if err := decode(in, &req); err != nil {
		return nil, failure(op, err)
	}

	created, err := s.service.CreateOrder(ctx, req.ToModel())
	if err != nil {
		return nil, failure(op, err)
	}

	return toStruct(op.Success(created))
}

// ListOrders handles the list orders gRPC request.
func (s *OrderServer) ListOrders(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	op := payloads.ListOrders

	req := payloads.ListOrdersRequest{}
	if err := decode(in, &req); err != nil {
		return nil, failure(op, err)
	}

	res, err := s.service.ListOrders(ctx, req.ToFilter())
	if err != nil {
		return nil, failure(op, err)
	}

	return toStruct(op.Page(res))
}

// UpdateOrder handles the update order gRPC request. The order id travels in the "id" field.
func (s *OrderServer) UpdateOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	op := payloads.UpdateOrder

	id, rest := splitID(in)

	req := payloads.UpdateOrderRequest{}
	if err := decode(rest, &req); err != nil {
		return nil, failure(op, err)
	}

	updated, err := s.service.UpdateOrder(ctx, id, req.ToPatch())
	if err != nil {
		return nil, failure(op, err)
	}

	return toStruct(op.Success(updated))
}

// DeleteOrder handles the delete order gRPC request.
func (s *OrderServer) DeleteOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	op := payloads.DeleteOrder

	id, _ := splitID(in)
	if err := s.service.DeleteOrder(ctx, id); err != nil {
		return nil, failure(op, err)
	}

	return toStruct(op.Success(nil))
}

// decode runs a request struct through the same JSON decoding and validation as HTTP bodies.
func decode(in *structpb.Struct, dst any) error {
	body, err := protojson.Marshal(in)
	if err != nil {
		return apperr.Validation(map[string][]string{"body": {err.Error()}})
	}

	if err := payloads.DecodeJSON(bytes.NewReader(body), dst); err != nil {
		return err
	}

	return payloads.Validate(dst)
}

func splitID(in *structpb.Struct) (string, *structpb.Struct) {
	rest := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(in.GetFields()))}

	var id string
	for key, value := range in.GetFields() {
		if key == "id" {
			id = strings.TrimSpace(value.GetStringValue())
			continue
		}
		rest.Fields[key] = value
	}

	return id, rest
}

// failure converts err to a status whose message is the envelope description. The full failure
// envelope rides along as a detail.
func failure(op payloads.Operation, err error) error {
	appErr, body := op.Failure(err)
	if appErr.Status >= 500 {
		slog.Error("gRPC request failed", "error", err, "error_code", appErr.ErrorCode)
	}

	st := status.New(apperr.GRPCCode(appErr.Status), appErr.Description)

	detail, convErr := toStruct(body)
	if convErr != nil {
		return st.Err()
	}
	if withDetail, detailErr := st.WithDetails(detail); detailErr == nil {
		st = withDetail
	}

	return st.Err()
}

func toStruct(v any) (*structpb.Struct, error) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("Error encoding gRPC response", "error", err)
		return nil, status.Error(codes.Internal, "Internal server error")
	}

	out := &structpb.Struct{}
	if err := protojson.Unmarshal(body, out); err != nil {
		slog.Error("Error converting gRPC response", "error", err)
		return nil, status.Error(codes.Internal, "Internal server error")
	}

	return out, nil
}
