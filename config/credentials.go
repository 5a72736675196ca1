package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"masterflow/logger"
	"masterflow/models"
)

// ErrMissingCredentials is returned when no source in the resolution
// chain yields both an api key and a secret key.
var ErrMissingCredentials = errors.New("marketdata api credentials not resolved")

const defaultSource = "TWSAPI"

// Credential environment variable names, matching the downloader the
// trading terminal already documents for operators.
const (
	envAPIKey    = "XTS_API_KEY"
	envSecretKey = "XTS_SECRET_KEY"
	envBaseURL   = "XTS_URL"
)

// ResolveCredentials walks the credential sources in priority order:
// the ini-style credentials file, then environment variables, then an
// interactive prompt. The first source that yields an api key wins;
// api key and secret key are never merged across sources. Interactive
// prompting is skipped in production-like environments so unattended
// runs fail fast instead of blocking on stdin.
func ResolveCredentials(path string, stdin io.Reader, stdout io.Writer) (models.Credentials, error) {
	log := logger.GetLogger().WithComponent("credentials")

	creds, ok := credentialsFromFile(path)
	if ok {
		log.WithFields(logger.Fields{"source": "file", "path": path}).Info("loaded credentials")
	}

	if !ok {
		creds, ok = credentialsFromEnv()
		if ok {
			log.WithFields(logger.Fields{"source": "env"}).Info("loaded credentials")
		}
	}

	if !ok && stdin != nil && !IsProductionLike(AppEnvironment()) {
		creds, ok = promptCredentials(stdin, stdout)
		if ok {
			log.WithFields(logger.Fields{"source": "prompt"}).Info("loaded credentials")
		}
	}

	if !ok || creds.APIKey == "" || creds.SecretKey == "" {
		return models.Credentials{}, ErrMissingCredentials
	}

	if creds.Source == "" {
		creds.Source = defaultSource
	}
	if creds.BaseURL == "" {
		creds.BaseURL = DefaultBaseURL
	}

	log.WithFields(logger.Fields{
		"api_key":  creds.MaskedAPIKey(),
		"source":   creds.Source,
		"base_url": creds.BaseURL,
	}).Info("resolved marketdata credentials")

	return creds, nil
}

// credentialsFromFile parses key = value pairs from an ini-style file.
// Lines starting with ';' or '#' are comments; surrounding quotes on
// values are stripped. mdurl is the preferred base URL, url only a
// fallback when mdurl is absent.
func credentialsFromFile(path string) (models.Credentials, bool) {
	f, err := os.Open(path)
	if err != nil {
		return models.Credentials{}, false
	}
	defer f.Close()

	var creds models.Credentials
	var fallbackURL string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch key {
		case "marketdata_appkey":
			creds.APIKey = value
		case "marketdata_secretkey":
			creds.SecretKey = value
		case "source":
			creds.Source = value
		case "mdurl":
			creds.BaseURL = value
		case "url":
			fallbackURL = value
		}
	}
	if err := scanner.Err(); err != nil {
		logger.GetLogger().WithComponent("credentials").WithError(err).Warn("could not read credentials file")
		return models.Credentials{}, false
	}

	if creds.BaseURL == "" {
		creds.BaseURL = fallbackURL
	}

	return creds, creds.APIKey != ""
}

func credentialsFromEnv() (models.Credentials, bool) {
	creds := models.Credentials{
		APIKey:    strings.TrimSpace(os.Getenv(envAPIKey)),
		SecretKey: strings.TrimSpace(os.Getenv(envSecretKey)),
		BaseURL:   strings.TrimSpace(os.Getenv(envBaseURL)),
	}
	return creds, creds.APIKey != ""
}

// promptCredentials asks the operator for credentials on stdin. An
// empty base URL keeps the hard-coded default.
func promptCredentials(stdin io.Reader, stdout io.Writer) (models.Credentials, bool) {
	reader := bufio.NewReader(stdin)

	readLine := func(prompt string) string {
		fmt.Fprint(stdout, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return ""
		}
		return strings.TrimSpace(line)
	}

	fmt.Fprintln(stdout, "Enter XTS Market Data Credentials:")
	creds := models.Credentials{
		APIKey:    readLine("API Key (publicKey): "),
		SecretKey: readLine("Secret Key: "),
		BaseURL:   readLine("Base URL (press Enter for default): "),
	}

	return creds, creds.APIKey != ""
}
