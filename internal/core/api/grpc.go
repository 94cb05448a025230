package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/docguard/internal/types"
)

/*
 * gRPC surface: docguard.v1.ValidationService.
 *
 * One unary method, ValidateDocument, carrying google.protobuf.Struct on
 * both sides so document content stays schemaless end to end.
 *
 * Request fields:  document_id (string), document_type (string), content (object)
 * Response fields: the Outcome JSON shape (documentId, checks, issues,
 *                  status, flagged, rulesUnavailable)
 *
 * The service descriptor below is written in the form protoc-gen-go-grpc
 * emits, so it registers on a plain *grpc.Server and works with any
 * client calling the full method name.
 */

const (
	ValidationServiceName                             = "docguard.v1.ValidationService"
	ValidationService_ValidateDocument_FullMethodName = "/docguard.v1.ValidationService/ValidateDocument"
)

// ValidationServiceServer is the server API for docguard.v1.ValidationService.
type ValidationServiceServer interface {
	ValidateDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterValidationServiceServer registers srv on s.
func RegisterValidationServiceServer(s grpc.ServiceRegistrar, srv ValidationServiceServer) {
	s.RegisterService(&ValidationService_ServiceDesc, srv)
}

func _ValidationService_ValidateDocument_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ValidationServiceServer).ValidateDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ValidationService_ValidateDocument_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ValidationServiceServer).ValidateDocument(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ValidationService_ServiceDesc is the grpc.ServiceDesc for docguard.v1.ValidationService.
var ValidationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ValidationServiceName,
	HandlerType: (*ValidationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ValidateDocument",
			Handler:    _ValidationService_ValidateDocument_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docguard/v1/validation.proto",
}

// GRPCService adapts ValidationService to ValidationServiceServer.
type GRPCService struct {
	service *ValidationService
}

// NewGRPCService wraps service for gRPC registration.
func NewGRPCService(service *ValidationService) *GRPCService {
	return &GRPCService{service: service}
}

// ValidateDocument implements ValidationServiceServer.
func (g *GRPCService) ValidateDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	id := fields["document_id"].GetStringValue()
	documentType := fields["document_type"].GetStringValue()

	var content types.Content
	if v, ok := fields["content"]; ok {
		if _, isNull := v.GetKind().(*structpb.Value_NullValue); !isNull {
			obj := v.GetStructValue()
			if obj == nil {
				return nil, grpcError(fmt.Errorf("%w: content must be an object", types.ErrInvalidDocument))
			}
			content = obj.AsMap()
		}
	}

	outcome, err := g.service.ValidateDocument(ctx, types.DocumentID(id), documentType, content)
	if err != nil {
		return nil, grpcError(err)
	}

	resp, err := outcomeStruct(outcome)
	if err != nil {
		return nil, grpcError(err)
	}
	return resp, nil
}

// outcomeStruct renders an Outcome through its JSON shape so the gRPC and
// HTTP responses carry identical field names.
func outcomeStruct(outcome Outcome) (*structpb.Struct, error) {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outcome: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to encode outcome: %w", err)
	}
	return structpb.NewStruct(m)
}
