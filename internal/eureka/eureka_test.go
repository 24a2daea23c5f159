package eureka

import (
	"strings"
	"testing"
)

func TestInstancePayload(t *testing.T) {
	payload := instancePayload("tripagent:10.0.0.5:10002", "TRIPAGENT", "10.0.0.5", 10002)
	for _, want := range []string{
		"<instanceId>tripagent:10.0.0.5:10002</instanceId>",
		"<app>TRIPAGENT</app>",
		"<ipAddr>10.0.0.5</ipAddr>",
		`<port enabled="true">10002</port>`,
		"<status>UP</status>",
		"<healthCheckUrl>http://10.0.0.5:10002/healthz</healthCheckUrl>",
		"com.netflix.appinfo.InstanceInfo$DefaultDataCenterInfo",
	} {
		if !strings.Contains(payload, want) {
			t.Fatalf("payload missing %q:\n%s", want, payload)
		}
	}
}

func TestLocalIPNeverEmpty(t *testing.T) {
	if localIP() == "" {
		t.Fatalf("localIP must always return an address")
	}
}
