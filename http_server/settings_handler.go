package http_server

import (
	"net/http"
)

type (
	SettingsReqBody struct {
		// FullLoadThreshold applies to the next file load, not retroactively
		// to already open files
		FullLoadThreshold int64 `validate:"required,gte=1000,lte=1000000"`
	}

	SettingsResponse struct {
		FullLoadThreshold int64 `json:"full_load_threshold"`
	}
)

func (s *HTTPServer) GetSettingsHandler(c *CustomContext) error {
	return c.JSON(http.StatusOK, SettingsResponse{
		FullLoadThreshold: s.Files.Threshold(),
	})
}

func (s *HTTPServer) UpdateSettingsHandler(c *CustomContext) error {
	var reqBody SettingsReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	s.Files.SetThreshold(reqBody.FullLoadThreshold)

	return c.JSON(http.StatusOK, SettingsResponse{
		FullLoadThreshold: s.Files.Threshold(),
	})
}
