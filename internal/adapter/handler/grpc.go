package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
)

const (
	enrichmentServiceName   = "enrichment.v1.Enrichment"
	enrichAlertFullMethod   = "/" + enrichmentServiceName + "/EnrichAlert"
	classifyAlarmFullMethod = "/" + enrichmentServiceName + "/ClassifyAlarm"
)

// EnrichmentServer is the server API for the enrichment.v1.Enrichment service.
// Requests and responses are protobuf well-known types: the request carries the
// raw SNS event (or alarm name) and the response mirrors the REST JSON body.
type EnrichmentServer interface {
	EnrichAlert(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ClassifyAlarm(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

type GrpcServer struct {
	enricher ports.Enricher
}

func NewGrpcServer(enricher ports.Enricher) *GrpcServer {
	return &GrpcServer{
		enricher: enricher,
	}
}

// EnrichAlert returns the outbound result. A Failure result is a normal
// response, not a gRPC error.
func (s *GrpcServer) EnrichAlert(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "event cannot be empty")
	}

	result := s.enricher.Enrich(ctx, []byte(req.GetValue()))

	out, err := toStruct(result)
	if err != nil {
		log.Printf("❌ error encoding enrichment result: %v", err)
		return nil, status.Error(codes.Internal, "failed to encode result")
	}
	return out, nil
}

func (s *GrpcServer) ClassifyAlarm(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm name cannot be empty")
	}

	out, err := toStruct(domain.ClassifyAlarm(req.GetValue()))
	if err != nil {
		log.Printf("❌ error encoding classification: %v", err)
		return nil, status.Error(codes.Internal, "failed to encode classification")
	}
	return out, nil
}

// toStruct converts any JSON-tagged value into a protobuf Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func RegisterEnrichmentServer(s grpc.ServiceRegistrar, srv EnrichmentServer) {
	s.RegisterService(&EnrichmentServiceDesc, srv)
}

func enrichAlertHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EnrichmentServer).EnrichAlert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: enrichAlertFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EnrichmentServer).EnrichAlert(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func classifyAlarmHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EnrichmentServer).ClassifyAlarm(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: classifyAlarmFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EnrichmentServer).ClassifyAlarm(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var EnrichmentServiceDesc = grpc.ServiceDesc{
	ServiceName: enrichmentServiceName,
	HandlerType: (*EnrichmentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "EnrichAlert", Handler: enrichAlertHandler},
		{MethodName: "ClassifyAlarm", Handler: classifyAlarmHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "enrichment/v1/enrichment.proto",
}

// EnrichmentClient calls the enrichment.v1.Enrichment service and decodes
// responses back into domain types.
type EnrichmentClient struct {
	cc grpc.ClientConnInterface
}

func NewEnrichmentClient(cc grpc.ClientConnInterface) *EnrichmentClient {
	return &EnrichmentClient{cc: cc}
}

func (c *EnrichmentClient) EnrichAlert(ctx context.Context, event []byte, opts ...grpc.CallOption) (domain.Result, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, enrichAlertFullMethod, wrapperspb.String(string(event)), out, opts...); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if err := fromStruct(out, &result); err != nil {
		return domain.Result{}, fmt.Errorf("failed to decode result: %w", err)
	}
	return result, nil
}

func (c *EnrichmentClient) ClassifyAlarm(ctx context.Context, alarmName string, opts ...grpc.CallOption) (domain.Classification, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, classifyAlarmFullMethod, wrapperspb.String(alarmName), out, opts...); err != nil {
		return domain.Classification{}, err
	}

	var classification domain.Classification
	if err := fromStruct(out, &classification); err != nil {
		return domain.Classification{}, fmt.Errorf("failed to decode classification: %w", err)
	}
	return classification, nil
}
