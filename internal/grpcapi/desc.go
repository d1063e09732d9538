// Package grpcapi публикует операции ядра по gRPC.
//
// Сообщения — google.protobuf.Struct: поля запроса и ответа в snake_case,
// как в JSON-представлении моделей. Вызывающий передаётся в метаданных.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/service"
)

const ServiceName = "mci.coordination.v1.CoordinationService"

// handler обрабатывает один метод: разбирает запрос и вызывает сервис.
type handler func(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error)

// method описывает метод сервиса; anonymous — метод без вызывающего (регистрация, вход).
type method struct {
	name      string
	anonymous bool
	handle    handler
}

// Server — реализация gRPC-сервиса поверх service.Service.
type Server struct {
	svc *service.Service
}

func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// Register регистрирует сервис на gRPC-сервере.
func Register(s *grpc.Server, srv *Server) {
	s.RegisterService(ServiceDesc(), srv)
}

// FullMethod — полное имя метода для клиентов.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// coordinationServer — тип для проверки HandlerType при регистрации.
type coordinationServer interface {
	invoke(ctx context.Context, m method, in *structpb.Struct) (*structpb.Struct, error)
}

func ServiceDesc() *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*coordinationServer)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "mci/coordination/v1/coordination.proto",
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    unary(m),
		})
	}
	return desc
}

func unary(m method) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(coordinationServer)
		if interceptor == nil {
			return s.invoke(ctx, m, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(m.name)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return s.invoke(ctx, m, req.(*structpb.Struct))
		})
	}
}

func (s *Server) invoke(ctx context.Context, m method, in *structpb.Struct) (*structpb.Struct, error) {
	var p authz.Principal
	if !m.anonymous {
		var err error
		if p, err = PrincipalFromContext(ctx); err != nil {
			return nil, err
		}
	}
	req, err := newRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := m.handle(ctx, s.svc, p, req)
	if err != nil {
		return nil, toStatus(err)
	}
	resp, err := encode(out)
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}
