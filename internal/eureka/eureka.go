// Package eureka registers the service with a Netflix Eureka registry and
// keeps the lease alive. Registration is best effort: the service stays up
// whether or not the registry is reachable.
package eureka

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tuanvm/tripagent/config"
)

const (
	registerRetryInterval = 5 * time.Second
	heartbeatInterval     = 30 * time.Second
	requestTimeout        = 5 * time.Second
)

// Run registers the instance and then heartbeats until ctx is cancelled. It
// returns immediately when no registry URL is configured.
func Run(ctx context.Context, cfg config.EurekaConfig, port int, logger *log.Logger) {
	if cfg.ServerURL == "" {
		return
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[EUREKA] ", log.LstdFlags)
	}

	ip := localIP()
	appName := strings.ToUpper(cfg.AppName)
	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = fmt.Sprintf("%s:%s:%d", strings.ToLower(appName), ip, port)
	}
	base := cfg.ServerURL
	if !strings.HasSuffix(base, "/eureka") {
		base += "/eureka"
	}

	client := &http.Client{Timeout: requestTimeout}
	registerURL := fmt.Sprintf("%s/apps/%s", base, appName)
	heartbeatURL := fmt.Sprintf("%s/apps/%s/%s", base, appName, instanceID)
	payload := instancePayload(instanceID, appName, ip, port)

	for {
		if err := post(ctx, client, registerURL, payload); err == nil {
			logger.Printf("registered %s (%s)", appName, instanceID)
			break
		} else {
			logger.Printf("register failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(registerRetryInterval):
		}
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := put(ctx, client, heartbeatURL); err != nil {
				logger.Printf("heartbeat failed: %v", err)
			}
		}
	}
}

func instancePayload(instanceID, appName, ip string, port int) string {
	home := fmt.Sprintf("http://%s:%d/", ip, port)
	health := fmt.Sprintf("http://%s:%d/healthz", ip, port)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<instance>
  <instanceId>%s</instanceId>
  <hostName>%s</hostName>
  <app>%s</app>
  <ipAddr>%s</ipAddr>
  <status>UP</status>
  <port enabled="true">%d</port>
  <securePort enabled="false">443</securePort>
  <homePageUrl>%s</homePageUrl>
  <statusPageUrl>%s</statusPageUrl>
  <healthCheckUrl>%s</healthCheckUrl>
  <dataCenterInfo class="com.netflix.appinfo.InstanceInfo$DefaultDataCenterInfo">
    <name>MyOwn</name>
  </dataCenterInfo>
</instance>`, instanceID, ip, appName, ip, port, home, health, health)
}

func post(ctx context.Context, client *http.Client, url, payload string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/xml")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func put(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// localIP returns the outbound interface address, falling back to loopback.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
