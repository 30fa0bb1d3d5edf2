package builder

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert ESP32 developer. Generate clean, well-documented C++ code for ESP32 projects.

Always respond with valid JSON in this exact format:
{
  "files": {
    "src/main.cpp": "// code here",
    "include/config.h": "// code here"
  },
  "platformio_ini": "// platformio.ini content",
  "config": {
    "board": "esp32dev",
    "framework": "arduino",
    "lib_deps": ["lib1", "lib2"]
  }
}

Requirements:
- Use modern C++ practices
- Include comprehensive comments
- Follow Arduino/ESP32 conventions
- Handle errors appropriately
- Include Serial debugging at 115200 baud
- Never use emojis
- Keep code modular and organized`

const converseSystemPrompt = `You help users turn project ideas into ESP32 build specifications through conversation.

When you still need information, respond with JSON: {"message": "your question"}.
When the idea is fully specified, respond with JSON:
{"project_spec": {"project_name": "...", "board_type": "esp32", "description": "...", "features": ["..."]}, "message": "short summary"}.

Only return valid JSON, no other text.`

const detectionSystemPrompt = `You are an embedded machine-learning expert. Design lightweight object-detection model configurations that run on ESP32-class hardware.

Always respond with valid JSON in this exact format:
{
  "model_name": "...",
  "architecture": "...",
  "input_size": [96, 96],
  "classes": ["..."],
  "confidence_threshold": 0.6,
  "files": {"include/model_data.h": "// model data"},
  "training_notes": "...",
  "hardware_requirements": ["..."]
}

Only return valid JSON, no other text.`

// generationPrompt renders the natural-language build request. The section
// order is fixed; omitted optional fields produce no section at all, so
// identical contexts always render identical prompts.
func generationPrompt(c BuildContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a complete ESP32 project with the following specifications:\n\n")
	fmt.Fprintf(&b, "Project Name: %s\n", c.ProjectName)
	fmt.Fprintf(&b, "Board Type: %s\n", c.BoardType)
	fmt.Fprintf(&b, "Description: %s\n\n", c.Description)

	b.WriteString("Features requested:\n")
	if len(c.Features) == 0 {
		b.WriteString("- Basic functionality\n")
	}
	for _, f := range c.Features {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	if c.BoardContext != "" {
		fmt.Fprintf(&b, "\nBoard Context:\n%s\n", c.BoardContext)
	}

	if len(c.Libraries) > 0 {
		b.WriteString("\nLibraries to use:\n")
		for _, lib := range c.Libraries {
			fmt.Fprintf(&b, "- %s: %s\n", lib.Name, lib.Description)
		}
	}

	if len(c.Materials) > 0 {
		b.WriteString("\nHardware Components:\n")
		for _, mat := range c.Materials {
			fmt.Fprintf(&b, "- %s: %s\n", mat.Name, mat.Description)
		}
	}

	if c.WiFi != nil {
		b.WriteString("\nWiFi Configuration: SSID will be provided at runtime\n")
	}

	if c.CustomCode != "" {
		fmt.Fprintf(&b, "\nCustom Code Snippet to include:\n%s\n", c.CustomCode)
	}

	b.WriteString(`
Generate:
1. All necessary source files (main.cpp, headers)
2. platformio.ini configuration
3. Proper library dependencies
4. WiFi/AP functionality if requested
5. Error handling and serial debugging
6. README with build instructions

Respond only with valid JSON.`)

	return b.String()
}

func librarySearchPrompt(query, boardType string) string {
	return fmt.Sprintf(`Search for ESP32 libraries related to: %s

Board type: %s

Return a JSON array of libraries with this exact structure:
[
  {
    "name": "Library Name",
    "version": "1.0.0",
    "author": "Author Name",
    "url": "https://github.com/...",
    "description": "Brief description",
    "platformio_name": "library_name"
  }
]

Only return valid JSON, no other text.`, query, boardType)
}

func materialSearchPrompt(query, boardType string) string {
	return fmt.Sprintf(`Search for ESP32 project materials and components related to: %s

Board type: %s

Return a JSON array of materials with this exact structure:
[
  {
    "name": "Component/Material Name",
    "category": "sensor|actuator|communication|power|display|other",
    "description": "Description of what it does",
    "pin_count": 4,
    "voltage": "3.3V",
    "protocol": "I2C|SPI|UART|GPIO|Analog",
    "library_needed": "Library Name",
    "example_url": "https://...",
    "typical_use_case": "Brief use case description"
  }
]

Only return valid JSON, no other text.`, query, boardType)
}

func detectionModelPrompt(object, boardType string) string {
	return fmt.Sprintf(`Design an object-detection model configuration for detecting: %s

Target board: %s

The model must fit the board's memory and run without external accelerators.
Include the model data as a C header in "files".

Respond only with valid JSON.`, object, boardType)
}
