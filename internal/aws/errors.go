package aws

import (
	"errors"

	"github.com/aws/smithy-go"
)

// APIのエラーコード定数
const (
	CodeAccessDenied       = "AccessDenied"
	CodeRouteAlreadyExists = "RouteAlreadyExists"
	CodeRouteNotFound      = "InvalidRoute.NotFound"
	CodeRouteTableNotFound = "InvalidRouteTableID.NotFound"
	CodePeeringNotFound    = "InvalidVpcPeeringConnectionID.NotFound"
	CodePeeringIdMalformed = "InvalidVpcPeeringConnectionId.Malformed"
	CodeVpcNotFound        = "InvalidVpcID.NotFound"
	CodeParameterNotFound  = "ParameterNotFound"
)

// ErrorCode はSDKエラーからAPIエラーコードを取り出す（APIエラーでなければ空文字）
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// HasErrorCode はエラーが指定コードのいずれかに該当するかを判定する
func HasErrorCode(err error, codes ...string) bool {
	code := ErrorCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}
