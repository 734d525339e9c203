package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func registerSwaggerRoutes(r chi.Router) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	r.Get("/swagger/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	r.Get("/swagger/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Payment Reversal Engine API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Payment Reversal Engine API",
    "version": "1.0.0"
  },
  "security": [{"BasicAuth": []}],
  "paths": {
    "/reversals/{trackingNumber}/request": {
      "post": {
        "summary": "Request a reversal of an ACH payment",
        "parameters": [{"$ref": "#/components/parameters/TrackingNumber"}, {"$ref": "#/components/parameters/UserId"}, {"$ref": "#/components/parameters/UserName"}, {"$ref": "#/components/parameters/PortalAccountId"}],
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/ReversalRequest"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Outcome"}, "400": {"$ref": "#/components/responses/Outcome"}, "422": {"$ref": "#/components/responses/Outcome"}, "500": {"$ref": "#/components/responses/Outcome"}}
      }
    },
    "/reversals/{trackingNumber}/approve": {
      "post": {
        "summary": "Approve a requested reversal, optionally recovering funds",
        "parameters": [{"$ref": "#/components/parameters/TrackingNumber"}, {"$ref": "#/components/parameters/UserId"}, {"$ref": "#/components/parameters/UserName"}, {"$ref": "#/components/parameters/PortalAccountId"}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ReversalApprovalRequest"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Outcome"}, "400": {"$ref": "#/components/responses/Outcome"}, "422": {"$ref": "#/components/responses/Outcome"}, "500": {"$ref": "#/components/responses/Outcome"}}
      }
    },
    "/refunds/{key}": {
      "post": {
        "summary": "Refund a settled card payment",
        "parameters": [{"name": "key", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}}, {"$ref": "#/components/parameters/UserId"}, {"$ref": "#/components/parameters/UserName"}],
        "responses": {"200": {"$ref": "#/components/responses/Outcome"}, "400": {"$ref": "#/components/responses/Outcome"}, "422": {"$ref": "#/components/responses/Outcome"}, "500": {"$ref": "#/components/responses/Outcome"}}
      }
    },
    "/refunds/void": {
      "post": {
        "summary": "Void or refund a pending card payment at its processor",
        "parameters": [{"$ref": "#/components/parameters/UserId"}, {"$ref": "#/components/parameters/UserName"}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/VoidRefundRequest"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Outcome"}, "400": {"$ref": "#/components/responses/Outcome"}, "422": {"$ref": "#/components/responses/Outcome"}, "500": {"$ref": "#/components/responses/Outcome"}}
      }
    },
    "/transactions/{externalTrackingNumber}/status": {
      "get": {
        "summary": "Current status of a transaction, or UNKNOWN",
        "parameters": [{"name": "externalTrackingNumber", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Status"}}
      }
    },
    "/finalizations": {
      "post": {
        "summary": "Finalize a pending payment",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/FinalizeRequest"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Outcome"}, "400": {"$ref": "#/components/responses/Outcome"}, "422": {"$ref": "#/components/responses/Outcome"}, "500": {"$ref": "#/components/responses/Outcome"}}
      }
    },
    "/finalizations/manual": {
      "post": {
        "summary": "Manually correct status or tracking number for a support ticket",
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ManualUpdateRequest"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Outcome"}, "400": {"$ref": "#/components/responses/Outcome"}, "422": {"$ref": "#/components/responses/Outcome"}, "500": {"$ref": "#/components/responses/Outcome"}}
      }
    },
    "/settlements/{trackingNumber}": {
      "put": {
        "summary": "Edit a submitted settlement transaction",
        "parameters": [{"$ref": "#/components/parameters/TrackingNumber"}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/SettlementEditRequest"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Outcome"}, "400": {"$ref": "#/components/responses/Outcome"}, "422": {"$ref": "#/components/responses/Outcome"}, "500": {"$ref": "#/components/responses/Outcome"}}
      }
    },
    "/settlements/{trackingNumber}/resubmit": {
      "post": {
        "summary": "Resubmit a returned settlement transaction",
        "parameters": [{"$ref": "#/components/parameters/TrackingNumber"}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/SettlementResubmitRequest"}}}},
        "responses": {"200": {"$ref": "#/components/responses/Outcome"}, "400": {"$ref": "#/components/responses/Outcome"}, "422": {"$ref": "#/components/responses/Outcome"}, "500": {"$ref": "#/components/responses/Outcome"}}
      }
    }
  },
  "components": {
    "securitySchemes": {
      "BasicAuth": {"type": "http", "scheme": "basic"}
    },
    "parameters": {
      "TrackingNumber": {"name": "trackingNumber", "in": "path", "required": true, "schema": {"type": "string"}},
      "UserId": {"name": "X-User-Id", "in": "header", "schema": {"type": "integer", "format": "int64"}},
      "UserName": {"name": "X-User-Name", "in": "header", "schema": {"type": "string"}},
      "PortalAccountId": {"name": "X-Portal-Account-Id", "in": "header", "schema": {"type": "integer", "format": "int64"}}
    },
    "responses": {
      "Outcome": {
        "description": "Outcome of the operation. userMessage is empty on success.",
        "content": {"application/json": {"schema": {"type": "object", "properties": {"success": {"type": "boolean"}, "message": {"type": "string"}, "data": {"type": "object", "properties": {"success": {"type": "boolean"}, "userMessage": {"type": "string"}}}, "errors": {"type": "array", "items": {"type": "string"}}}}}}
      }
    },
    "schemas": {
      "ReversalRequest": {"type": "object", "properties": {"reason": {"type": "string"}}},
      "ReversalApprovalRequest": {
        "type": "object",
        "required": ["reason"],
        "properties": {"isFundsRecovery": {"type": "boolean"}, "amount": {"type": "string", "example": "125.50"}, "reason": {"type": "string"}}
      },
      "VoidRefundRequest": {
        "type": "object",
        "required": ["externalTrackingNumber"],
        "properties": {"gatewayTransactionId": {"type": "string"}, "merchantProfileId": {"type": "string"}, "paymentMethodId": {"type": "string"}, "externalTrackingNumber": {"type": "string"}}
      },
      "FinalizeRequest": {
        "type": "object",
        "required": ["key", "status"],
        "properties": {"key": {"type": "integer", "format": "int64"}, "status": {"type": "string", "enum": ["APPROVED", "FUNDED", "DECLINED", "DELETED", "REFUNDED"]}, "trackingNumber": {"type": "string"}}
      },
      "ManualUpdateRequest": {
        "allOf": [{"$ref": "#/components/schemas/FinalizeRequest"}, {"type": "object", "required": ["ticketRef"], "properties": {"ticketRef": {"type": "string"}}}]
      },
      "SettlementEditRequest": {
        "type": "object",
        "required": ["amount", "routingNumber", "accountType", "accountNumber", "comments"],
        "properties": {"amount": {"type": "string"}, "routingNumber": {"type": "string"}, "accountType": {"type": "string"}, "accountNumber": {"type": "string"}, "comments": {"type": "string"}, "changes": {"type": "string"}}
      },
      "SettlementResubmitRequest": {
        "type": "object",
        "required": ["routingNumber", "accountType", "accountNumber", "comments"],
        "properties": {"routingNumber": {"type": "string"}, "accountType": {"type": "string"}, "accountNumber": {"type": "string"}, "comments": {"type": "string"}}
      }
    }
  }
}`
