/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package local

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const ResultTokenIssuer = "shield-local"

// ResultClaims bind a device result to the site that requested it and to a digest of the device state.
type ResultClaims struct {
	jwt.RegisteredClaims
	SiteId      string `json:"sid"`
	Environment string `json:"env"`
	DeviceHash  string `json:"dh"`
}

// SignResultToken signs claims with HS256 using the site's secret key.
func SignResultToken(secretKey string, claims *ResultClaims) (string, error) {
	if secretKey == "" {
		return "", errors.New("secret key is required to sign a result token")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// VerifyResultToken validates the signature and registered claims of a token produced by SignResultToken.
func VerifyResultToken(secretKey, tokenStr string) (*ResultClaims, error) {
	claims := &ResultClaims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(ResultTokenIssuer))
	_, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "invalid result token")
	}

	return claims, nil
}

func newResultClaims(sessionId, siteId, environment, deviceHash string, now time.Time, ttl time.Duration) *ResultClaims {
	claims := &ResultClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   ResultTokenIssuer,
			Subject:  sessionId,
			IssuedAt: jwt.NewNumericDate(now),
		},
		SiteId:      siteId,
		Environment: environment,
		DeviceHash:  deviceHash,
	}

	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return claims
}
